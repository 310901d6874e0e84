package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/unclebandit/church-broadcast/internal/model"
	"github.com/unclebandit/church-broadcast/internal/repository"
)

// Receipt is a delivery report published by the SMS provider bridge.
type Receipt struct {
	DeliveryID string `json:"delivery_id"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// ReceiptWorker applies delivery receipts to the ledger. It is the only
// path that moves a record out of pending.
type ReceiptWorker struct {
	DeliveryRepo repository.DeliveryRepositoryInterface
	Log          *slog.Logger
}

func NewReceiptWorker(repo repository.DeliveryRepositoryInterface, log *slog.Logger) *ReceiptWorker {
	return &ReceiptWorker{DeliveryRepo: repo, Log: log}
}

// ErrInvalidReceipt marks receipts that retrying cannot fix.
type ErrInvalidReceipt struct {
	Reason string
}

func (e *ErrInvalidReceipt) Error() string { return "invalid receipt: " + e.Reason }

func receiptStatus(raw string) (model.DeliveryStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sent", "delivered", "delivrd":
		return model.DeliverySent, true
	case "failed", "undelivered", "undeliv", "rejected", "expired":
		return model.DeliveryFailed, true
	}
	return "", false
}

// Handle applies one receipt. Receipts for records that are already final
// are ignored so redelivered receipts are harmless.
func (w *ReceiptWorker) Handle(ctx context.Context, r Receipt) error {
	if r.DeliveryID == "" {
		return &ErrInvalidReceipt{Reason: "missing delivery_id"}
	}
	status, ok := receiptStatus(r.Status)
	if !ok {
		return &ErrInvalidReceipt{Reason: fmt.Sprintf("unknown status %q", r.Status)}
	}

	updated, err := w.DeliveryRepo.UpdateStatus(ctx, r.DeliveryID, status, r.Error)
	if err != nil {
		return fmt.Errorf("update delivery %s: %w", r.DeliveryID, err)
	}
	if !updated {
		w.Log.Debug("receipt ignored, record missing or already final", "delivery_id", r.DeliveryID)
		return nil
	}
	w.Log.Info("delivery status updated", "delivery_id", r.DeliveryID, "status", status)
	return nil
}
