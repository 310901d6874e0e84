// internal/model/delivery_record.go
package model

import "time"

// DeliveryStatus of a DeliveryRecord.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)

// DeliveryRecord is the single append-only ledger of what a campaign sent.
// The conversation view reads it as OutboundHistoryEntry.
type DeliveryRecord struct {
	ID           string         `db:"id" json:"id"`
	CampaignID   string         `db:"campaign_id" json:"campaign_id"`
	ChurchID     string         `db:"church_id" json:"church_id"`
	ContactID    string         `db:"contact_id" json:"contact_id"`
	Name         string         `db:"name" json:"name"`
	Phone        string         `db:"phone" json:"phone"`
	RenderedBody string         `db:"rendered_body" json:"rendered_body"`
	Status       DeliveryStatus `db:"status" json:"status"`
	SentBy       string         `db:"sent_by" json:"sent_by"`
	LastError    string         `db:"last_error" json:"last_error,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time     `db:"updated_at" json:"updated_at,omitempty"`
}

// History projects the record onto the outbound conversation stream.
func (r DeliveryRecord) History() OutboundHistoryEntry {
	return OutboundHistoryEntry{
		Phone:       r.Phone,
		Body:        r.RenderedBody,
		ContactName: r.Name,
		Timestamp:   r.CreatedAt,
	}
}
