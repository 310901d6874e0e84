package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unclebandit/church-broadcast/internal/logging"
	"github.com/unclebandit/church-broadcast/internal/model"
	"github.com/unclebandit/church-broadcast/internal/repository"
)

func TestReceiptWorker_Handle(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := repository.NewMemoryStore()
	req.NoError(store.BulkCreate(ctx, []model.DeliveryRecord{
		{ID: "d1", CampaignID: "k", ChurchID: "c1", Phone: "0711", Status: model.DeliveryPending, CreatedAt: t0},
		{ID: "d2", CampaignID: "k", ChurchID: "c1", Phone: "0722", Status: model.DeliveryPending, CreatedAt: t0},
	}))
	w := NewReceiptWorker(store, logging.Discard())

	req.NoError(w.Handle(ctx, Receipt{DeliveryID: "d1", Status: "DELIVRD"}))
	req.NoError(w.Handle(ctx, Receipt{DeliveryID: "d2", Status: "failed", Error: "absent subscriber"}))
	// a late contradicting receipt must not flip a final record
	req.NoError(w.Handle(ctx, Receipt{DeliveryID: "d1", Status: "failed"}))

	stats, err := store.GetCampaignStats(ctx, "c1", "k")
	req.NoError(err)
	req.Equal(1, stats[model.DeliverySent])
	req.Equal(1, stats[model.DeliveryFailed])
	req.Zero(stats[model.DeliveryPending])

	records, err := store.ListByCampaign(ctx, "c1", "k")
	req.NoError(err)
	req.Equal(model.DeliverySent, records[0].Status)
	req.Equal("absent subscriber", records[1].LastError)
	req.NotNil(records[1].UpdatedAt)
}

func TestReceiptWorker_InvalidReceipts(t *testing.T) {
	w := NewReceiptWorker(repository.NewMemoryStore(), logging.Discard())

	var invalid *ErrInvalidReceipt
	require.ErrorAs(t, w.Handle(context.Background(), Receipt{Status: "sent"}), &invalid)
	require.ErrorAs(t, w.Handle(context.Background(), Receipt{DeliveryID: "d1", Status: "maybe"}), &invalid)
}

func TestReceiptWorker_UnknownRecordIsIgnored(t *testing.T) {
	w := NewReceiptWorker(repository.NewMemoryStore(), logging.Discard())
	require.NoError(t, w.Handle(context.Background(), Receipt{DeliveryID: "missing", Status: "sent"}))
}
