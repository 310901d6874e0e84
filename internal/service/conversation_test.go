package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/church-broadcast/internal/errors"
	"github.com/unclebandit/church-broadcast/internal/logging"
	"github.com/unclebandit/church-broadcast/internal/model"
	"github.com/unclebandit/church-broadcast/internal/repository"
)

var t0 = time.Date(2026, 4, 5, 9, 0, 0, 0, time.UTC)

func newAggregator(store *repository.MemoryStore) *ConversationAggregator {
	log := logging.Discard()
	return &ConversationAggregator{
		Conversations: store,
		Deliveries:    store,
		ReadState:     &ReadStateTracker{Conversations: store, Log: log},
		Log:           log,
	}
}

func seedOutbound(t *testing.T, store *repository.MemoryStore, id, phone, body string, at time.Time) {
	t.Helper()
	require.NoError(t, store.BulkCreate(context.Background(), []model.DeliveryRecord{{
		ID: id, CampaignID: "camp-" + id, ChurchID: "c1", ContactID: "m-" + id,
		Name: "Ann", Phone: phone, RenderedBody: body, Status: model.DeliveryPending, CreatedAt: at,
	}}))
}

func TestListConversations_InboundNewestWins(t *testing.T) {
	req := require.New(t)
	store := repository.NewMemoryStore()
	store.AddInbound(model.InboundMessage{ChurchID: "c1", Phone: "0711", Body: "first", ContactName: "Ann", Timestamp: t0.Add(1 * time.Minute)})
	seedOutbound(t, store, "d1", "0711", "reply", t0.Add(2*time.Minute))
	store.AddInbound(model.InboundMessage{ChurchID: "c1", Phone: "0711", Body: "third", ContactName: "Ann", Timestamp: t0.Add(3 * time.Minute)})

	got, err := newAggregator(store).ListConversations(context.Background(), "c1")
	req.NoError(err)
	req.Len(got, 1)
	req.Equal("third", got[0].LastMessage)
	req.Equal(t0.Add(3*time.Minute), got[0].LastMessageAt)
	req.Equal(2, got[0].UnreadCount)
}

func TestListConversations_NewerOutboundIsPrefixed(t *testing.T) {
	req := require.New(t)
	store := repository.NewMemoryStore()
	store.AddInbound(model.InboundMessage{ChurchID: "c1", Phone: "0711", Body: "hello", Timestamp: t0})
	seedOutbound(t, store, "d1", "0711", "Welcome Ann", t0.Add(time.Minute))

	got, err := newAggregator(store).ListConversations(context.Background(), "c1")
	req.NoError(err)
	req.Len(got, 1)
	req.Equal("You: Welcome Ann", got[0].LastMessage)
	req.Equal(1, got[0].UnreadCount, "outbound never changes unread")
}

func TestListConversations_TieKeepsInbound(t *testing.T) {
	req := require.New(t)
	store := repository.NewMemoryStore()
	store.AddInbound(model.InboundMessage{ChurchID: "c1", Phone: "0711", Body: "hello", Timestamp: t0})
	seedOutbound(t, store, "d1", "0711", "same instant", t0)

	got, err := newAggregator(store).ListConversations(context.Background(), "c1")
	req.NoError(err)
	req.Equal("hello", got[0].LastMessage)
}

func TestListConversations_SortedNewestFirstAndStable(t *testing.T) {
	req := require.New(t)
	store := repository.NewMemoryStore()
	store.AddInbound(model.InboundMessage{ChurchID: "c1", Phone: "0700", Body: "old", Timestamp: t0})
	store.AddInbound(model.InboundMessage{ChurchID: "c1", Phone: "0733", Body: "tie b", Timestamp: t0.Add(time.Hour)})
	store.AddInbound(model.InboundMessage{ChurchID: "c1", Phone: "0722", Body: "tie a", Timestamp: t0.Add(time.Hour)})
	store.AddInbound(model.InboundMessage{ChurchID: "c2", Phone: "0799", Body: "other church", Timestamp: t0.Add(2 * time.Hour)})
	seedOutbound(t, store, "d1", "0744", "outbound only", t0.Add(30*time.Minute))

	agg := newAggregator(store)
	first, err := agg.ListConversations(context.Background(), "c1")
	req.NoError(err)
	phones := make([]string, 0, len(first))
	for _, s := range first {
		phones = append(phones, s.Phone)
	}
	req.Equal([]string{"0722", "0733", "0744", "0700"}, phones)
	req.Equal("You: outbound only", first[2].LastMessage)
	req.Zero(first[2].UnreadCount)

	second, err := agg.ListConversations(context.Background(), "c1")
	req.NoError(err)
	req.Equal(first, second)
}

func TestListConversations_PhoneFormattingMerges(t *testing.T) {
	req := require.New(t)
	store := repository.NewMemoryStore()
	store.AddInbound(model.InboundMessage{ChurchID: "c1", Phone: "+254 711-000", Body: "a", Timestamp: t0})
	store.AddInbound(model.InboundMessage{ChurchID: "c1", Phone: "254711000", Body: "b", Timestamp: t0.Add(time.Second)})

	got, err := newAggregator(store).ListConversations(context.Background(), "c1")
	req.NoError(err)
	req.Len(got, 1)
	req.Equal("254711000", got[0].Phone)
	req.Equal(2, got[0].UnreadCount)
}

func TestMarkRead_ThenListShowsZeroUnread(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := repository.NewMemoryStore()
	store.AddInbound(model.InboundMessage{ChurchID: "c1", Phone: "0711", Body: "a", Timestamp: t0})
	store.AddInbound(model.InboundMessage{ChurchID: "c1", Phone: "0711", Body: "b", Timestamp: t0.Add(time.Minute)})
	agg := newAggregator(store)

	n, err := agg.MarkRead(ctx, "c1", "0711")
	req.NoError(err)
	req.EqualValues(2, n)

	got, err := agg.ListConversations(ctx, "c1")
	req.NoError(err)
	req.Zero(got[0].UnreadCount)

	n, err = agg.MarkRead(ctx, "c1", "0711")
	req.NoError(err)
	req.Zero(n)
}

func TestMarkRead_Validation(t *testing.T) {
	agg := newAggregator(repository.NewMemoryStore())

	_, err := agg.MarkRead(context.Background(), "", "0711")
	require.ErrorIs(t, err, appErrors.ErrMissingChurch)

	_, err = agg.MarkRead(context.Background(), "c1", "unknown")
	require.ErrorIs(t, err, appErrors.ErrMissingPhone)
}

func TestGetMessages_OldestFirstBothDirections(t *testing.T) {
	req := require.New(t)
	store := repository.NewMemoryStore()
	store.AddInbound(model.InboundMessage{ChurchID: "c1", Phone: "0711", Body: "later", Timestamp: t0.Add(2 * time.Minute)})
	store.AddInbound(model.InboundMessage{ChurchID: "c1", Phone: "0799", Body: "someone else", Timestamp: t0})
	seedOutbound(t, store, "d1", "0711", "earlier", t0.Add(time.Minute))

	got, err := newAggregator(store).GetMessages(context.Background(), "c1", "0711")
	req.NoError(err)
	req.Len(got, 2)
	req.Equal(model.Outbound, got[0].Direction)
	req.Equal("earlier", got[0].Body)
	req.Equal(model.Inbound, got[1].Direction)
}

func TestGetMessages_RequiresPhone(t *testing.T) {
	_, err := newAggregator(repository.NewMemoryStore()).GetMessages(context.Background(), "c1", "")
	require.ErrorIs(t, err, appErrors.ErrMissingPhone)
}

func TestListConversations_EmailRecipientsKeepTheirAddress(t *testing.T) {
	req := require.New(t)
	store := repository.NewMemoryStore()
	store.AddInbound(model.InboundMessage{ChurchID: "c1", Phone: "0711", Body: "hello", Timestamp: t0})
	seedOutbound(t, store, "d1", "john@grace.org", "Meeting at 6", t0.Add(time.Minute))
	agg := newAggregator(store)

	got, err := agg.ListConversations(context.Background(), "c1")
	req.NoError(err)
	req.Len(got, 2)
	req.Equal("john@grace.org", got[0].Phone)
	req.Equal("You: Meeting at 6", got[0].LastMessage)

	timeline, err := agg.GetMessages(context.Background(), "c1", "john@grace.org")
	req.NoError(err)
	req.Len(timeline, 1)
	req.Equal(model.Outbound, timeline[0].Direction)
}
