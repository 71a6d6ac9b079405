package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/username/wheelfolio/src/logger"
	"github.com/username/wheelfolio/src/services"
	"github.com/username/wheelfolio/src/storage"
	"github.com/username/wheelfolio/src/utils"
)

type CampaignHandler struct {
	campaignService services.CampaignService
}

func NewCampaignHandler(service services.CampaignService) *CampaignHandler {
	return &CampaignHandler{
		campaignService: service,
	}
}

type createCampaignRequest struct {
	Name            string           `json:"name"`
	Symbol          string           `json:"symbol"`
	TargetExitPrice *decimal.Decimal `json:"target_exit_price,omitempty"`
}

func (h *CampaignHandler) HandleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	campaign, err := h.campaignService.CreateCampaign(req.Name, req.Symbol, req.TargetExitPrice)
	if err != nil {
		if errors.Is(err, services.ErrCampaignExists) {
			utils.SendJSONError(w, err.Error(), http.StatusConflict)
		} else if errors.Is(err, services.ErrInvalidInput) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		} else {
			logger.L.Error("Internal error creating campaign", "name", req.Name, "error", err)
			utils.SendJSONError(w, "An internal error occurred while creating the campaign.", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(campaign)
}

func (h *CampaignHandler) HandleListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.campaignService.ListCampaigns()
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("Error listing campaigns: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaigns)
}

func (h *CampaignHandler) HandleGetCampaign(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	campaign, err := h.campaignService.GetCampaign(name)
	if err != nil {
		if errors.Is(err, storage.ErrCampaignNotFound) {
			utils.SendJSONError(w, err.Error(), http.StatusNotFound)
		} else {
			utils.SendJSONError(w, fmt.Sprintf("Error loading campaign %s: %v", name, err), http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaign)
}

func (h *CampaignHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	summary, err := h.campaignService.Summary(name)
	if err != nil {
		if errors.Is(err, storage.ErrCampaignNotFound) {
			utils.SendJSONError(w, err.Error(), http.StatusNotFound)
		} else {
			logger.L.Error("Internal error computing summary", "campaign", name, "error", err)
			utils.SendJSONError(w, "An internal error occurred while computing the summary.", http.StatusInternalServerError)
		}
		return
	}

	etag, err := utils.GenerateETag(summary)
	if err == nil {
		w.Header().Set("ETag", etag)
		if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}
