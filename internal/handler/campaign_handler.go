// internal/handler/campaign_handler.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/church-broadcast/internal/controller"
	"github.com/unclebandit/church-broadcast/internal/service"
)

// CampaignHandler serves the audit view of past broadcasts.
type CampaignHandler struct {
	Dispatcher *service.CampaignDispatcher
	Log        *slog.Logger
}

func NewCampaignHandler(d *service.CampaignDispatcher, log *slog.Logger) *CampaignHandler {
	return &CampaignHandler{Dispatcher: d, Log: log}
}

// GetCampaignReport returns the delivery records and status counts of one campaign.
func (h *CampaignHandler) GetCampaignReport(w http.ResponseWriter, r *http.Request) {
	churchID := chi.URLParam(r, "churchID")
	campaignID := chi.URLParam(r, "campaignID")

	report, err := h.Dispatcher.CampaignReport(r.Context(), churchID, campaignID)
	if err != nil {
		if controller.StatusFor(err) == http.StatusInternalServerError {
			h.Log.Error("failed to fetch campaign report", "church_id", churchID, "campaign_id", campaignID, "error", err)
		}
		controller.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
