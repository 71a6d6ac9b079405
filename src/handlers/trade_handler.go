package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/wheelfolio/src/models"
	"github.com/username/wheelfolio/src/services"
	"github.com/username/wheelfolio/src/storage"
	"github.com/username/wheelfolio/src/utils"
)

type TradeHandler struct {
	campaignService services.CampaignService
}

func NewTradeHandler(service services.CampaignService) *TradeHandler {
	return &TradeHandler{
		campaignService: service,
	}
}

// tradeRequest mirrors the manual-entry form: every numeric field arrives as
// the string the user typed, so it goes through the same normalizer as CSV
// imports.
type tradeRequest struct {
	Symbol     string `json:"symbol"`
	Quantity   int    `json:"quantity"`
	Price      string `json:"price"`
	Date       string `json:"date"`
	Action     string `json:"action"`
	Strike     string `json:"strike"`
	Expiration string `json:"expiration"`
	Delta      string `json:"delta,omitempty"`
}

func (req *tradeRequest) toTrade() (models.Trade, error) {
	var trade models.Trade
	var err error

	trade.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	trade.Quantity = req.Quantity

	if trade.Price, err = utils.ParseMoney(req.Price); err != nil {
		return trade, fmt.Errorf("price: %w", err)
	}
	if trade.Date, err = utils.ParseISODate(req.Date); err != nil {
		return trade, fmt.Errorf("date: %w", err)
	}
	if trade.Action, err = models.ParseAction(req.Action); err != nil {
		return trade, err
	}
	if trade.Strike, err = utils.ParseMoney(req.Strike); err != nil {
		return trade, fmt.Errorf("strike: %w", err)
	}
	if trade.Expiration, err = utils.ParseISODate(req.Expiration); err != nil {
		return trade, fmt.Errorf("expiration: %w", err)
	}
	if req.Delta != "" {
		delta, err := decimal.NewFromString(req.Delta)
		if err != nil {
			return trade, fmt.Errorf("delta: %w", utils.ErrMalformedNumber)
		}
		trade.Delta = &delta
	}
	return trade, nil
}

func (h *TradeHandler) HandleAddTrade(w http.ResponseWriter, r *http.Request) {
	campaignName := r.PathValue("name")

	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	trade, err := req.toTrade()
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	added, err := h.campaignService.AddTrade(campaignName, trade)
	if err != nil {
		writeTradeError(w, campaignName, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(added)
}

func (h *TradeHandler) HandleUpdateTrade(w http.ResponseWriter, r *http.Request) {
	campaignName := r.PathValue("name")
	tradeID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "Invalid trade id", http.StatusBadRequest)
		return
	}

	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	trade, err := req.toTrade()
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.campaignService.UpdateTrade(campaignName, tradeID, trade); err != nil {
		writeTradeError(w, campaignName, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeTradeError(w http.ResponseWriter, campaignName string, err error) {
	switch {
	case errors.Is(err, storage.ErrCampaignNotFound), errors.Is(err, models.ErrTradeNotFound):
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrSymbolMismatch), errors.Is(err, models.ErrInvalidTrade):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		utils.SendJSONError(w, fmt.Sprintf("Error updating campaign %s: %v", campaignName, err), http.StatusInternalServerError)
	}
}
