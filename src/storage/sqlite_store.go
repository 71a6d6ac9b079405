package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/wheelfolio/src/models"
	"github.com/username/wheelfolio/src/utils"
)

// sqliteStore persists campaigns and trades in sqlite. Decimal columns are
// stored as their exact string form and parsed back with shopspring/decimal,
// so a round trip through the store is lossless.
type sqliteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) CampaignStore {
	return &sqliteStore{db: db}
}

func (s *sqliteStore) LoadCampaign(name string) (*models.Campaign, error) {
	var campaign models.Campaign
	var targetExit sql.NullString
	var createdAt string

	err := s.db.QueryRow(
		`SELECT name, symbol, target_exit_price, created_at FROM campaigns WHERE name = ?`,
		name,
	).Scan(&campaign.Name, &campaign.Symbol, &targetExit, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrCampaignNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("error loading campaign %s: %w", name, err)
	}

	campaign.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("error parsing created_at for campaign %s: %w", name, err)
	}
	if targetExit.Valid {
		price, err := decimal.NewFromString(targetExit.String)
		if err != nil {
			return nil, fmt.Errorf("error parsing target_exit_price for campaign %s: %w", name, err)
		}
		campaign.TargetExitPrice = &price
	}

	rows, err := s.db.Query(`
		SELECT id, symbol, action, quantity, price, strike, delta, trade_date, expiration_date
		FROM option_trades
		WHERE campaign = ?
		ORDER BY trade_date ASC, id ASC`, name)
	if err != nil {
		return nil, fmt.Errorf("error querying trades for campaign %s: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		trade, err := scanTrade(rows, name)
		if err != nil {
			return nil, err
		}
		campaign.Trades = append(campaign.Trades, trade)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trades for campaign %s: %w", name, err)
	}

	return &campaign, nil
}

func scanTrade(rows *sql.Rows, campaign string) (models.Trade, error) {
	var trade models.Trade
	var price, strike, tradeDate, expiration string
	var delta sql.NullString

	if err := rows.Scan(&trade.ID, &trade.Symbol, &trade.Action, &trade.Quantity,
		&price, &strike, &delta, &tradeDate, &expiration); err != nil {
		return trade, fmt.Errorf("error scanning trade for campaign %s: %w", campaign, err)
	}

	var err error
	if trade.Price, err = decimal.NewFromString(price); err != nil {
		return trade, fmt.Errorf("error parsing stored price %q: %w", price, err)
	}
	if trade.Strike, err = decimal.NewFromString(strike); err != nil {
		return trade, fmt.Errorf("error parsing stored strike %q: %w", strike, err)
	}
	if delta.Valid {
		d, err := decimal.NewFromString(delta.String)
		if err != nil {
			return trade, fmt.Errorf("error parsing stored delta %q: %w", delta.String, err)
		}
		trade.Delta = &d
	}
	if trade.Date, err = utils.ParseISODate(tradeDate); err != nil {
		return trade, fmt.Errorf("error parsing stored trade date %q: %w", tradeDate, err)
	}
	if trade.Expiration, err = utils.ParseISODate(expiration); err != nil {
		return trade, fmt.Errorf("error parsing stored expiration %q: %w", expiration, err)
	}
	trade.Campaign = campaign
	return trade, nil
}

func (s *sqliteStore) SaveCampaign(campaign *models.Campaign) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var targetExit interface{}
	if campaign.TargetExitPrice != nil {
		targetExit = campaign.TargetExitPrice.String()
	}
	_, err = tx.Exec(`
		INSERT INTO campaigns (name, symbol, target_exit_price, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET symbol = excluded.symbol, target_exit_price = excluded.target_exit_price`,
		campaign.Name, campaign.Symbol, targetExit, campaign.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("error upserting campaign %s: %w", campaign.Name, err)
	}

	insert, err := tx.Prepare(`
		INSERT INTO option_trades (campaign, symbol, action, quantity, price, strike, delta, trade_date, expiration_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing trade insert: %w", err)
	}
	defer insert.Close()

	update, err := tx.Prepare(`
		UPDATE option_trades
		SET symbol = ?, action = ?, quantity = ?, price = ?, strike = ?, delta = ?, trade_date = ?, expiration_date = ?
		WHERE id = ? AND campaign = ?`)
	if err != nil {
		return fmt.Errorf("error preparing trade update: %w", err)
	}
	defer update.Close()

	for i := range campaign.Trades {
		t := &campaign.Trades[i]
		var delta interface{}
		if t.Delta != nil {
			delta = t.Delta.String()
		}

		if t.ID == 0 {
			res, err := insert.Exec(campaign.Name, t.Symbol, string(t.Action), t.Quantity,
				t.Price.String(), t.Strike.String(), delta,
				utils.FormatISODate(t.Date), utils.FormatISODate(t.Expiration))
			if err != nil {
				return fmt.Errorf("error inserting trade for campaign %s: %w", campaign.Name, err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("error reading inserted trade id: %w", err)
			}
			t.ID = id
		} else {
			if _, err := update.Exec(t.Symbol, string(t.Action), t.Quantity,
				t.Price.String(), t.Strike.String(), delta,
				utils.FormatISODate(t.Date), utils.FormatISODate(t.Expiration),
				t.ID, campaign.Name); err != nil {
				return fmt.Errorf("error updating trade %d for campaign %s: %w", t.ID, campaign.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing campaign %s: %w", campaign.Name, err)
	}
	return nil
}

func (s *sqliteStore) ListCampaigns() ([]models.Campaign, error) {
	rows, err := s.db.Query(
		`SELECT name, symbol, target_exit_price, created_at FROM campaigns ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("error listing campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []models.Campaign{}
	for rows.Next() {
		var campaign models.Campaign
		var targetExit sql.NullString
		var createdAt string
		if err := rows.Scan(&campaign.Name, &campaign.Symbol, &targetExit, &createdAt); err != nil {
			return nil, fmt.Errorf("error scanning campaign: %w", err)
		}
		if campaign.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("error parsing created_at: %w", err)
		}
		if targetExit.Valid {
			price, err := decimal.NewFromString(targetExit.String)
			if err != nil {
				return nil, fmt.Errorf("error parsing target_exit_price: %w", err)
			}
			campaign.TargetExitPrice = &price
		}
		campaigns = append(campaigns, campaign)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaigns: %w", err)
	}
	return campaigns, nil
}
