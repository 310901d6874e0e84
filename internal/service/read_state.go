package service

import (
	"context"
	"log/slog"

	appErrors "github.com/unclebandit/church-broadcast/internal/errors"
	"github.com/unclebandit/church-broadcast/internal/model"
	"github.com/unclebandit/church-broadcast/internal/repository"
)

// ReadStateTracker marks a phone's unread inbound messages as read. The
// update only touches rows that are still unread, so repeats are no-ops.
type ReadStateTracker struct {
	Conversations repository.ConversationRepositoryInterface
	Log           *slog.Logger
}

func (t *ReadStateTracker) MarkRead(ctx context.Context, churchID, phone string) (int64, error) {
	if churchID == "" {
		return 0, appErrors.ErrMissingChurch
	}
	if model.NormalizePhone(phone) == "" {
		return 0, appErrors.ErrMissingPhone
	}
	n, err := t.Conversations.MarkRead(ctx, churchID, phone)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		t.Log.Debug("marked messages read", "church_id", churchID, "phone", phone, "count", n)
	}
	return n, nil
}
