// internal/controller/broadcast_controller.go
package controller

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/unclebandit/church-broadcast/internal/errors"
	"github.com/unclebandit/church-broadcast/internal/model"
	"github.com/unclebandit/church-broadcast/internal/service"
)

type BroadcastController struct {
	Dispatcher *service.CampaignDispatcher
	Resolver   service.AudienceResolver
}

// SendBroadcast answers once records are saved and deliveries are queued.
func (c *BroadcastController) SendBroadcast(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Target   string `json:"target"`
		Template string `json:"template"`
		SentBy   string `json:"sent_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	result, err := c.Dispatcher.SendBroadcast(r.Context(), service.BroadcastRequest{
		ChurchID: chi.URLParam(r, "churchID"),
		Target:   body.Target,
		Template: body.Template,
		SentBy:   body.SentBy,
	})
	if err != nil {
		if result != nil {
			writeJSON(w, StatusFor(err), map[string]interface{}{
				"error":  err.Error(),
				"result": result,
			})
			return
		}
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, result)
}

func (c *BroadcastController) Preview(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Template string `json:"template"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.Name == "" {
		body.Name = "Friend"
	}

	rendered, err := c.Dispatcher.Preview(body.Template, model.Contact{Name: body.Name})
	if err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rendered_message": rendered,
		"used_template":    body.Template,
		"name":             body.Name,
	})
}

// ResolveAudience lists who a broadcast to the target would reach.
func (c *BroadcastController) ResolveAudience(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "target")
	target, err := model.ParseTarget(raw)
	if err != nil {
		WriteError(w, appErrors.NewInvalidTarget(raw, err))
		return
	}

	res, err := c.Resolver.Resolve(r.Context(), target, chi.URLParam(r, "churchID"))
	if err != nil {
		WriteError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"target":   target.String(),
		"count":    len(res.Contacts),
		"skipped":  res.Skipped,
		"contacts": res.Contacts,
	})
}
