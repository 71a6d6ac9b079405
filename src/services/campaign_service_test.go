package services

import (
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/wheelfolio/src/database"
	"github.com/username/wheelfolio/src/logger"
	"github.com/username/wheelfolio/src/models"
	"github.com/username/wheelfolio/src/parsers"
	"github.com/username/wheelfolio/src/processors"
	"github.com/username/wheelfolio/src/storage"
	_ "modernc.org/sqlite"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	m.Run()
}

func newTestService(t *testing.T) CampaignService {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.EnsureSchema(db))

	store := storage.NewSQLiteStore(db)
	processor := processors.NewCampaignProcessor()
	summaryCache := cache.New(5*time.Minute, 10*time.Minute)
	return NewCampaignService(store, processor, summaryCache)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleTrade() models.Trade {
	return models.Trade{
		Symbol:     "NVTS",
		Quantity:   1,
		Price:      dec("2.50"),
		Date:       day("2025-07-01"),
		Action:     models.ActionSellPut,
		Strike:     dec("150"),
		Expiration: day("2025-07-18"),
	}
}

func TestCreateCampaign(t *testing.T) {
	service := newTestService(t)

	target := dec("155")
	campaign, err := service.CreateCampaign(" nvts-july ", "nvts", &target)
	require.NoError(t, err)
	assert.Equal(t, "nvts-july", campaign.Name)
	assert.Equal(t, "NVTS", campaign.Symbol)
	require.NotNil(t, campaign.TargetExitPrice)
	assert.True(t, campaign.TargetExitPrice.Equal(dec("155")))

	_, err = service.CreateCampaign("nvts-july", "NVTS", nil)
	assert.ErrorIs(t, err, ErrCampaignExists)

	_, err = service.CreateCampaign("", "NVTS", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = service.CreateCampaign("no-symbol", "", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAddTrade(t *testing.T) {
	service := newTestService(t)
	_, err := service.CreateCampaign("nvts-july", "NVTS", nil)
	require.NoError(t, err)

	added, err := service.AddTrade("nvts-july", sampleTrade())
	require.NoError(t, err)
	assert.NotZero(t, added.ID)
	assert.Equal(t, "nvts-july", added.Campaign)

	loaded, err := service.GetCampaign("nvts-july")
	require.NoError(t, err)
	require.Len(t, loaded.Trades, 1)
	assert.Equal(t, added.ID, loaded.Trades[0].ID)
}

func TestAddTrade_SymbolMismatch(t *testing.T) {
	service := newTestService(t)
	_, err := service.CreateCampaign("tsla-july", "TSLA", nil)
	require.NoError(t, err)

	_, err = service.AddTrade("tsla-july", sampleTrade())
	assert.ErrorIs(t, err, models.ErrSymbolMismatch)

	loaded, err := service.GetCampaign("tsla-july")
	require.NoError(t, err)
	assert.Empty(t, loaded.Trades)
}

func TestAddTrade_CampaignNotFound(t *testing.T) {
	service := newTestService(t)
	_, err := service.AddTrade("missing", sampleTrade())
	assert.ErrorIs(t, err, storage.ErrCampaignNotFound)
}

func TestUpdateTrade(t *testing.T) {
	service := newTestService(t)
	_, err := service.CreateCampaign("nvts-july", "NVTS", nil)
	require.NoError(t, err)
	added, err := service.AddTrade("nvts-july", sampleTrade())
	require.NoError(t, err)

	updated := sampleTrade()
	updated.Quantity = 3
	require.NoError(t, service.UpdateTrade("nvts-july", added.ID, updated))

	loaded, err := service.GetCampaign("nvts-july")
	require.NoError(t, err)
	require.Len(t, loaded.Trades, 1)
	assert.Equal(t, added.ID, loaded.Trades[0].ID)
	assert.Equal(t, 3, loaded.Trades[0].Quantity)

	err = service.UpdateTrade("nvts-july", added.ID+99, updated)
	assert.ErrorIs(t, err, models.ErrTradeNotFound)
}

const etradeImport = `Symbol,Quantity,Price,Date,Action,Strike,Expiration,Delta,Campaign
NVTS,1,2.50,2025-07-01,SellPut,150,2025-07-18,-0.30,nvts-july
NVTS,1,0.60,2025-07-10,BuyPut,150,2025-07-18,,nvts-july
RKLB,2,1.10,2025-07-02,SellCall,40,2025-07-18,0.25,rklb-july
`

func TestImportCSV_CreatesCampaignsAndAppliesTrades(t *testing.T) {
	service := newTestService(t)

	outcome, err := service.ImportCSV(strings.NewReader(etradeImport), "etrade", "", "")
	require.NoError(t, err)

	assert.Len(t, outcome.Applied, 3)
	assert.Empty(t, outcome.RowErrors)
	assert.Empty(t, outcome.Rejected)
	assert.ElementsMatch(t, []string{"nvts-july", "rklb-july"}, outcome.Campaigns)

	// Campaigns named by the import exist, with the symbol of their first trade.
	nvts, err := service.GetCampaign("nvts-july")
	require.NoError(t, err)
	assert.Equal(t, "NVTS", nvts.Symbol)
	assert.Len(t, nvts.Trades, 2)

	rklb, err := service.GetCampaign("rklb-july")
	require.NoError(t, err)
	assert.Equal(t, "RKLB", rklb.Symbol)
	assert.Len(t, rklb.Trades, 1)

	// Applied trades carry their persisted ids.
	for _, trade := range outcome.Applied {
		assert.NotZero(t, trade.ID)
	}
}

func TestImportCSV_RejectsSymbolMismatch(t *testing.T) {
	service := newTestService(t)
	_, err := service.CreateCampaign("nvts-july", "TSLA", nil)
	require.NoError(t, err)

	outcome, err := service.ImportCSV(strings.NewReader(etradeImport), "etrade", "", "")
	require.NoError(t, err)

	// The two NVTS rows target a TSLA campaign and bounce; RKLB goes through.
	assert.Len(t, outcome.Rejected, 2)
	for _, rejection := range outcome.Rejected {
		assert.ErrorIs(t, rejection.Err, models.ErrSymbolMismatch)
	}
	assert.Len(t, outcome.Applied, 1)
	assert.Equal(t, []string{"rklb-july"}, outcome.Campaigns)

	loaded, err := service.GetCampaign("nvts-july")
	require.NoError(t, err)
	assert.Empty(t, loaded.Trades)
}

func TestImportCSV_SchemaMismatch(t *testing.T) {
	service := newTestService(t)

	outcome, err := service.ImportCSV(strings.NewReader("Wrong,Header\n"), "etrade", "", "")
	assert.ErrorIs(t, err, parsers.ErrSchema)
	assert.Nil(t, outcome)
}

func TestImportCSV_UnknownSource(t *testing.T) {
	service := newTestService(t)

	_, err := service.ImportCSV(strings.NewReader(""), "fidelity", "", "")
	assert.ErrorIs(t, err, ErrParsingFailed)
}

func TestImportCSV_RowErrorsDoNotAbort(t *testing.T) {
	csvData := `Symbol,Quantity,Price,Date,Action,Strike,Expiration,Delta,Campaign
NVTS,1,2.50,2025-07-01,SellPut,150,2025-07-18,,nvts-july
NVTS,1,2.50,2025-07-01,HoldPut,150,2025-07-18,,nvts-july
`
	service := newTestService(t)

	outcome, err := service.ImportCSV(strings.NewReader(csvData), "etrade", "", "")
	require.NoError(t, err)
	require.Len(t, outcome.RowErrors, 1)
	assert.ErrorIs(t, outcome.RowErrors[0], parsers.ErrInvalidAction)
	assert.Len(t, outcome.Applied, 1)
}

func TestSummary_CachedUntilInvalidated(t *testing.T) {
	service := newTestService(t)
	_, err := service.CreateCampaign("nvts-july", "NVTS", nil)
	require.NoError(t, err)
	_, err = service.AddTrade("nvts-july", sampleTrade())
	require.NoError(t, err)

	first, err := service.Summary("nvts-july")
	require.NoError(t, err)
	assert.True(t, first.NetPremium.Equal(dec("250")))

	second, err := service.Summary("nvts-july")
	require.NoError(t, err)
	assert.Same(t, first, second)

	// A write invalidates the cached summary.
	another := sampleTrade()
	another.Date = day("2025-07-02")
	_, err = service.AddTrade("nvts-july", another)
	require.NoError(t, err)

	third, err := service.Summary("nvts-july")
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	assert.True(t, third.NetPremium.Equal(dec("500")))
}

func TestSummary_CampaignNotFound(t *testing.T) {
	service := newTestService(t)
	_, err := service.Summary("missing")
	assert.ErrorIs(t, err, storage.ErrCampaignNotFound)
}
