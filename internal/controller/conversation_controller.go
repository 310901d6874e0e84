// internal/controller/conversation_controller.go
package controller

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/church-broadcast/internal/service"
)

type ConversationController struct {
	Aggregator *service.ConversationAggregator
}

func (c *ConversationController) ListConversations(w http.ResponseWriter, r *http.Request) {
	summaries, err := c.Aggregator.ListConversations(r.Context(), chi.URLParam(r, "churchID"))
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": summaries})
}

// phoneParam decodes the {phone} segment. chi matches on the raw path, so
// an encoded "+254..." arrives as "%2B254...".
func phoneParam(r *http.Request) (string, error) {
	return url.PathUnescape(chi.URLParam(r, "phone"))
}

func (c *ConversationController) GetMessages(w http.ResponseWriter, r *http.Request) {
	phone, err := phoneParam(r)
	if err != nil {
		http.Error(w, "invalid phone", http.StatusBadRequest)
		return
	}
	messages, err := c.Aggregator.GetMessages(r.Context(), chi.URLParam(r, "churchID"), phone)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": messages})
}

func (c *ConversationController) MarkRead(w http.ResponseWriter, r *http.Request) {
	phone, err := phoneParam(r)
	if err != nil {
		http.Error(w, "invalid phone", http.StatusBadRequest)
		return
	}
	n, err := c.Aggregator.MarkRead(r.Context(), chi.URLParam(r, "churchID"), phone)
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"marked_read": n})
}
