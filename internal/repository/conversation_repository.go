package repository

import (
	"context"
	"database/sql"

	"github.com/unclebandit/church-broadcast/internal/model"
)

type ConversationRepositoryInterface interface {
	// ListInbound returns inbound messages; an empty phone means all phones.
	ListInbound(ctx context.Context, churchID, phone string) ([]model.InboundMessage, error)
	// Timeline merges both directions for one phone, oldest first.
	Timeline(ctx context.Context, churchID, phone string) ([]model.TimelineEntry, error)
	// MarkRead flips unread inbound messages to read and returns how many changed.
	MarkRead(ctx context.Context, churchID, phone string) (int64, error)
}

// ConversationRepository reads inbound messages and the delivery ledger.
// Inbound phones are stored as received, so they are compared digits-only.
type ConversationRepository struct {
	DB *sql.DB
}

func (r *ConversationRepository) ListInbound(ctx context.Context, churchID, phone string) ([]model.InboundMessage, error) {
	query := `
        SELECT id, church_id, phone, body, contact_name, received_at, is_read
        FROM inbound_messages
        WHERE church_id = $1
          AND ($2::text = '' OR regexp_replace(phone, '\D', '', 'g') = $2)
        ORDER BY received_at, id
    `
	rows, err := r.DB.QueryContext(ctx, query, churchID, model.NormalizePhone(phone))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []model.InboundMessage{}
	for rows.Next() {
		var m model.InboundMessage
		if err := rows.Scan(&m.ID, &m.ChurchID, &m.Phone, &m.Body, &m.ContactName, &m.Timestamp, &m.IsRead); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *ConversationRepository) Timeline(ctx context.Context, churchID, phone string) ([]model.TimelineEntry, error) {
	query := `
        SELECT direction, phone, body, contact_name, ts, is_read FROM (
            SELECT 'inbound' AS direction, phone, body, contact_name, received_at AS ts, is_read
            FROM inbound_messages
            WHERE church_id = $1 AND $2::text <> '' AND regexp_replace(phone, '\D', '', 'g') = $2
            UNION ALL
            SELECT 'outbound', phone, rendered_body, name, created_at, TRUE
            FROM delivery_records
            WHERE church_id = $1 AND phone = $3
        ) t
        ORDER BY ts ASC, direction ASC
    `
	rows, err := r.DB.QueryContext(ctx, query, churchID, model.NormalizePhone(phone), model.NormalizeAddress(phone))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.TimelineEntry{}
	for rows.Next() {
		var e model.TimelineEntry
		var direction string
		if err := rows.Scan(&direction, &e.Phone, &e.Body, &e.ContactName, &e.Timestamp, &e.IsRead); err != nil {
			return nil, err
		}
		e.Direction = model.Direction(direction)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *ConversationRepository) MarkRead(ctx context.Context, churchID, phone string) (int64, error) {
	query := `
        UPDATE inbound_messages
        SET is_read = TRUE
        WHERE church_id = $1
          AND regexp_replace(phone, '\D', '', 'g') = $2
          AND is_read = FALSE
    `
	res, err := r.DB.ExecContext(ctx, query, churchID, model.NormalizePhone(phone))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ ConversationRepositoryInterface = (*ConversationRepository)(nil)
