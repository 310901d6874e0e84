package service

import (
	"context"
	"log/slog"
	"sort"

	"github.com/samber/lo"

	appErrors "github.com/unclebandit/church-broadcast/internal/errors"
	"github.com/unclebandit/church-broadcast/internal/model"
	"github.com/unclebandit/church-broadcast/internal/repository"
)

// OutboundPrefix marks a last message written by the church.
const OutboundPrefix = "You: "

type ConversationAggregator struct {
	Conversations repository.ConversationRepositoryInterface
	Deliveries    repository.DeliveryRepositoryInterface
	ReadState     *ReadStateTracker
	Log           *slog.Logger
}

// ListConversations returns one summary per phone, newest first.
func (a *ConversationAggregator) ListConversations(ctx context.Context, churchID string) ([]model.ConversationSummary, error) {
	if churchID == "" {
		return nil, appErrors.ErrMissingChurch
	}
	inbound, err := a.Conversations.ListInbound(ctx, churchID, "")
	if err != nil {
		return nil, err
	}
	outbound, err := a.Deliveries.ListOutbound(ctx, churchID, "")
	if err != nil {
		return nil, err
	}
	return mergeConversations(inbound, outbound), nil
}

// GetMessages returns both directions for one phone, oldest first.
func (a *ConversationAggregator) GetMessages(ctx context.Context, churchID, phone string) ([]model.TimelineEntry, error) {
	if churchID == "" {
		return nil, appErrors.ErrMissingChurch
	}
	if model.NormalizeAddress(phone) == "" {
		return nil, appErrors.ErrMissingPhone
	}
	return a.Conversations.Timeline(ctx, churchID, phone)
}

func (a *ConversationAggregator) MarkRead(ctx context.Context, churchID, phone string) (int64, error) {
	return a.ReadState.MarkRead(ctx, churchID, phone)
}

// mergeConversations keys on the normalized address: digits for phones,
// the lowercased email for leaders reached through their email. The latest
// inbound message is provisional; an outbound entry replaces it only when
// strictly newer. Unread counts every unread inbound message and outbound
// entries never touch it.
func mergeConversations(inbound []model.InboundMessage, outbound []model.OutboundHistoryEntry) []model.ConversationSummary {
	byPhone := map[string]*model.ConversationSummary{}
	get := func(phone string) *model.ConversationSummary {
		s, ok := byPhone[phone]
		if !ok {
			s = &model.ConversationSummary{Phone: phone}
			byPhone[phone] = s
		}
		return s
	}

	for _, m := range inbound {
		s := get(model.NormalizeAddress(m.Phone))
		if s.LastMessageAt.IsZero() || m.Timestamp.After(s.LastMessageAt) {
			s.LastMessage = m.Body
			s.LastMessageAt = m.Timestamp
			if m.ContactName != "" {
				s.ContactName = m.ContactName
			}
		}
		if !m.IsRead {
			s.UnreadCount++
		}
	}

	for _, o := range outbound {
		s := get(model.NormalizeAddress(o.Phone))
		if s.LastMessageAt.IsZero() || o.Timestamp.After(s.LastMessageAt) {
			s.LastMessage = OutboundPrefix + o.Body
			s.LastMessageAt = o.Timestamp
		}
		if s.ContactName == "" {
			s.ContactName = o.ContactName
		}
	}

	summaries := lo.Map(lo.Values(byPhone), func(s *model.ConversationSummary, _ int) model.ConversationSummary {
		return *s
	})
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].LastMessageAt.Equal(summaries[j].LastMessageAt) {
			return summaries[i].LastMessageAt.After(summaries[j].LastMessageAt)
		}
		return summaries[i].Phone < summaries[j].Phone
	})
	return summaries
}
