// Package gateway hands rendered messages to an external delivery channel.
// A nil error means the channel took custody, not that the handset got it.
package gateway

import (
	"context"
	"log/slog"
)

// Message is one outbound SMS. DeliveryID lets receipts find their record.
type Message struct {
	DeliveryID string `json:"delivery_id"`
	Phone      string `json:"phone"`
	Body       string `json:"body"`
}

type Gateway interface {
	Deliver(ctx context.Context, msg Message) error
}

// Func adapts a plain function to Gateway.
type Func func(ctx context.Context, msg Message) error

func (f Func) Deliver(ctx context.Context, msg Message) error { return f(ctx, msg) }

// LogGateway accepts everything and only logs it. Used for local runs.
type LogGateway struct {
	Log *slog.Logger
}

func (g *LogGateway) Deliver(ctx context.Context, msg Message) error {
	g.Log.Info("sms accepted by log gateway",
		"delivery_id", msg.DeliveryID, "phone", msg.Phone, "chars", len(msg.Body))
	return nil
}
