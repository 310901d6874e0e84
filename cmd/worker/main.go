// cmd/worker/main.go consumes delivery receipts and settles delivery records.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/streadway/amqp"

	"github.com/unclebandit/church-broadcast/internal/config"
	"github.com/unclebandit/church-broadcast/internal/db"
	"github.com/unclebandit/church-broadcast/internal/logging"
	"github.com/unclebandit/church-broadcast/internal/repository"
	"github.com/unclebandit/church-broadcast/internal/service"
)

type ackAction int

const (
	ack ackAction = iota
	requeue
	drop
)

// settle decides what happens to one receipt delivery. Malformed receipts
// are dropped; store errors are requeued once.
func settle(ctx context.Context, w *service.ReceiptWorker, body []byte, redelivered bool) ackAction {
	var r service.Receipt
	if err := json.Unmarshal(body, &r); err != nil {
		w.Log.Warn("invalid receipt payload", "error", err)
		return drop
	}

	err := w.Handle(ctx, r)
	if err == nil {
		return ack
	}

	var invalid *service.ErrInvalidReceipt
	if errors.As(err, &invalid) {
		w.Log.Warn("dropping receipt", "delivery_id", r.DeliveryID, "error", err)
		return drop
	}
	if redelivered {
		w.Log.Error("receipt failed twice, dropping", "delivery_id", r.DeliveryID, "error", err)
		return drop
	}
	w.Log.Warn("receipt failed, requeueing", "delivery_id", r.DeliveryID, "error", err)
	return requeue
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DSN())
	if err != nil {
		log.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	worker := service.NewReceiptWorker(&repository.DeliveryRepository{DB: conn}, log)

	mq, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		log.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mq.Close()

	ch, err := mq.Channel()
	if err != nil {
		log.Error("failed to open a channel", "error", err)
		os.Exit(1)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		cfg.AMQPReceiptQueue, // name
		true,                 // durable
		false,                // delete when unused
		false,                // exclusive
		false,                // no-wait
		nil,                  // arguments
	)
	if err != nil {
		log.Error("failed to declare queue", "queue", cfg.AMQPReceiptQueue, "error", err)
		os.Exit(1)
	}
	if err := ch.Qos(32, 0, false); err != nil {
		log.Error("failed to set prefetch", "error", err)
		os.Exit(1)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Error("failed to register consumer", "error", err)
		os.Exit(1)
	}

	log.Info("worker running, waiting for receipts", "queue", q.Name)
	for {
		select {
		case <-ctx.Done():
			log.Info("worker stopping")
			return
		case d, ok := <-msgs:
			if !ok {
				log.Error("receipt channel closed by broker")
				return
			}
			switch settle(ctx, worker, d.Body, d.Redelivered) {
			case ack:
				d.Ack(false)
			case requeue:
				d.Nack(false, true)
			case drop:
				d.Nack(false, false)
			}
		}
	}
}
