package services

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/wheelfolio/src/logger"
	"github.com/username/wheelfolio/src/models"
	"github.com/username/wheelfolio/src/parsers"
	"github.com/username/wheelfolio/src/processors"
	"github.com/username/wheelfolio/src/storage"
)

const ckCampaignSummary = "summary_%s"

type campaignServiceImpl struct {
	store        storage.CampaignStore
	processor    processors.CampaignProcessor
	summaryCache *cache.Cache

	// Serializes all writes to campaign state. Two imports into the same
	// campaign must not interleave their load/append/save cycles.
	mu sync.Mutex

	now func() time.Time
}

func NewCampaignService(
	store storage.CampaignStore,
	processor processors.CampaignProcessor,
	summaryCache *cache.Cache,
) CampaignService {
	return &campaignServiceImpl{
		store:        store,
		processor:    processor,
		summaryCache: summaryCache,
		now:          time.Now,
	}
}

func (s *campaignServiceImpl) CreateCampaign(name, symbol string, targetExitPrice *decimal.Decimal) (*models.Campaign, error) {
	name = strings.TrimSpace(name)
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if name == "" || symbol == "" {
		return nil, fmt.Errorf("%w: campaign name and symbol are required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.LoadCampaign(name); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrCampaignExists, name)
	} else if !errors.Is(err, storage.ErrCampaignNotFound) {
		return nil, err
	}

	campaign := &models.Campaign{
		Name:            name,
		Symbol:          symbol,
		TargetExitPrice: targetExitPrice,
		CreatedAt:       s.now(),
	}
	if err := s.store.SaveCampaign(campaign); err != nil {
		return nil, err
	}
	logger.L.Info("Campaign created", "campaign", name, "symbol", symbol)
	return campaign, nil
}

func (s *campaignServiceImpl) ListCampaigns() ([]models.Campaign, error) {
	return s.store.ListCampaigns()
}

func (s *campaignServiceImpl) GetCampaign(name string) (*models.Campaign, error) {
	return s.store.LoadCampaign(name)
}

func (s *campaignServiceImpl) AddTrade(campaignName string, trade models.Trade) (*models.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	campaign, err := s.store.LoadCampaign(campaignName)
	if err != nil {
		return nil, err
	}
	if err := campaign.AddTrade(trade); err != nil {
		return nil, err
	}
	if err := s.store.SaveCampaign(campaign); err != nil {
		return nil, err
	}
	s.invalidateSummary(campaignName)

	added := campaign.Trades[len(campaign.Trades)-1]
	logger.L.Info("Trade added", "campaign", campaignName, "tradeID", added.ID, "action", added.Action)
	return &added, nil
}

func (s *campaignServiceImpl) UpdateTrade(campaignName string, tradeID int64, trade models.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	campaign, err := s.store.LoadCampaign(campaignName)
	if err != nil {
		return err
	}
	if err := campaign.UpdateTrade(tradeID, trade); err != nil {
		return err
	}
	if err := s.store.SaveCampaign(campaign); err != nil {
		return err
	}
	s.invalidateSummary(campaignName)

	logger.L.Info("Trade updated", "campaign", campaignName, "tradeID", tradeID)
	return nil
}

// ImportCSV parses the file with the selected broker parser and appends the
// accepted trades to their campaigns, creating campaigns on first mention.
// Row-level failures never abort the rest of the file; a header mismatch
// aborts with nothing applied.
func (s *campaignServiceImpl) ImportCSV(file io.Reader, source, symbol, campaignName string) (*ImportOutcome, error) {
	startTime := time.Now()
	logger.L.Info("ImportCSV START", "source", source, "symbol", symbol, "campaign", campaignName)

	parser, err := parsers.GetParser(source, parsers.Options{Symbol: symbol, Campaign: campaignName})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	result, err := parser.Parse(file)
	if err != nil {
		if errors.Is(err, parsers.ErrSchema) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	outcome := &ImportOutcome{
		Applied:   []models.Trade{},
		RowErrors: result.Failed,
		Warnings:  result.Warnings,
		Rejected:  []TradeRejection{},
		Campaigns: []string{},
	}
	if outcome.RowErrors == nil {
		outcome.RowErrors = []parsers.RowError{}
	}
	if outcome.Warnings == nil {
		outcome.Warnings = []parsers.RowError{}
	}

	// The ETrade schema names the target campaign per row, so one file may
	// fan out across several campaigns.
	grouped := make(map[string][]models.Trade)
	var order []string
	for _, trade := range result.Trades {
		if _, seen := grouped[trade.Campaign]; !seen {
			order = append(order, trade.Campaign)
		}
		grouped[trade.Campaign] = append(grouped[trade.Campaign], trade)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range order {
		trades := grouped[name]

		campaign, err := s.store.LoadCampaign(name)
		if errors.Is(err, storage.ErrCampaignNotFound) {
			campaign = &models.Campaign{
				Name:      name,
				Symbol:    strings.ToUpper(trades[0].Symbol),
				CreatedAt: s.now(),
			}
			logger.L.Info("Creating campaign named by import", "campaign", name, "symbol", campaign.Symbol)
		} else if err != nil {
			return nil, err
		}

		applied := 0
		for _, trade := range trades {
			if err := campaign.AddTrade(trade); err != nil {
				outcome.Rejected = append(outcome.Rejected, TradeRejection{Trade: trade, Err: err})
				continue
			}
			applied++
		}
		if applied == 0 {
			continue // nothing to persist for a campaign that only saw rejections
		}
		if err := s.store.SaveCampaign(campaign); err != nil {
			return nil, err
		}
		outcome.Applied = append(outcome.Applied, campaign.Trades[len(campaign.Trades)-applied:]...)
		outcome.Campaigns = append(outcome.Campaigns, name)
		s.invalidateSummary(name)
	}

	logger.L.Info("ImportCSV END",
		"source", source,
		"applied", len(outcome.Applied),
		"rowErrors", len(outcome.RowErrors),
		"warnings", len(outcome.Warnings),
		"rejected", len(outcome.Rejected),
		"duration", time.Since(startTime))
	return outcome, nil
}

func (s *campaignServiceImpl) Summary(campaignName string) (*models.CampaignSummary, error) {
	cacheKey := fmt.Sprintf(ckCampaignSummary, campaignName)
	if cached, found := s.summaryCache.Get(cacheKey); found {
		if summary, ok := cached.(*models.CampaignSummary); ok {
			logger.L.Debug("Summary cache hit", "campaign", campaignName)
			return summary, nil
		}
	}

	campaign, err := s.store.LoadCampaign(campaignName)
	if err != nil {
		return nil, err
	}

	summary := s.processor.Summarize(campaign, s.now())
	s.summaryCache.Set(cacheKey, &summary, cache.DefaultExpiration)
	return &summary, nil
}

func (s *campaignServiceImpl) invalidateSummary(campaignName string) {
	s.summaryCache.Delete(fmt.Sprintf(ckCampaignSummary, campaignName))
}
