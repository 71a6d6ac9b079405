package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/username/wheelfolio/src/config"
	"github.com/username/wheelfolio/src/logger"
	"github.com/username/wheelfolio/src/parsers"
	"github.com/username/wheelfolio/src/services"
	"github.com/username/wheelfolio/src/utils"
)

type ImportHandler struct {
	campaignService services.CampaignService
}

func NewImportHandler(service services.CampaignService) *ImportHandler {
	return &ImportHandler{
		campaignService: service,
	}
}

// HandleImport accepts a multipart upload with a "file" field plus form
// values "source" (etrade|robinhood), and for Robinhood the target "symbol"
// and "campaign".
func (h *ImportHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		logger.L.Warn("Uploaded file too large", "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	source := r.FormValue("source")
	symbol := r.FormValue("symbol")
	campaign := r.FormValue("campaign")
	if source == "robinhood" && (symbol == "" || campaign == "") {
		utils.SendJSONError(w, "Robinhood imports require 'symbol' and 'campaign' form values.", http.StatusBadRequest)
		return
	}

	logger.L.Info("Processing import request", "filename", fileHeader.Filename, "source", source)
	outcome, err := h.campaignService.ImportCSV(file, source, symbol, campaign)
	if err != nil {
		if errors.Is(err, parsers.ErrSchema) {
			logger.L.Warn("Import aborted on schema mismatch", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		} else if errors.Is(err, services.ErrParsingFailed) {
			logger.L.Warn("Import failed during CSV parsing", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Error parsing CSV file: %v", err), http.StatusBadRequest)
		} else {
			logger.L.Error("Internal error processing import", "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, "An internal error occurred while processing the file. Please try again later.", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(outcome)
}
