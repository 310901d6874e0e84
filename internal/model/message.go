// internal/model/message.go
package model

import "time"

// InboundMessage is written by the inbound channel; only IsRead changes here.
type InboundMessage struct {
	ID          string    `db:"id" json:"id"`
	ChurchID    string    `db:"church_id" json:"church_id"`
	Phone       string    `db:"phone" json:"phone"`
	Body        string    `db:"body" json:"body"`
	ContactName string    `db:"contact_name" json:"contact_name"`
	Timestamp   time.Time `db:"received_at" json:"timestamp"`
	IsRead      bool      `db:"is_read" json:"is_read"`
}

type OutboundHistoryEntry struct {
	Phone       string    `json:"phone"`
	Body        string    `json:"body"`
	ContactName string    `json:"contact_name"`
	Timestamp   time.Time `json:"timestamp"`
}

type Direction string

const (
	Inbound  Direction = "inbound"
	Outbound Direction = "outbound"
)

// TimelineEntry is one message in a per-phone conversation.
type TimelineEntry struct {
	Direction   Direction `json:"direction"`
	Phone       string    `json:"phone"`
	Body        string    `json:"body"`
	ContactName string    `json:"contact_name"`
	Timestamp   time.Time `json:"timestamp"`
	IsRead      bool      `json:"is_read"`
}

// ConversationSummary is recomputed on every read.
type ConversationSummary struct {
	Phone         string    `json:"phone"`
	ContactName   string    `json:"contact_name"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
	UnreadCount   int       `json:"unread_count"`
}
