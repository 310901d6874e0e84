package service

import (
	"context"
	"errors"
	"sync"

	"github.com/unclebandit/church-broadcast/internal/gateway"
	"github.com/unclebandit/church-broadcast/internal/model"
	"github.com/unclebandit/church-broadcast/internal/repository"
)

// fakeRegistry returns fixed contacts or a fixed error and counts calls.
type fakeRegistry struct {
	name     string
	contacts []model.Contact
	err      error

	mu    sync.Mutex
	calls int
}

func (f *fakeRegistry) Name() string { return f.name }

func (f *fakeRegistry) ListContacts(ctx context.Context, churchID string) ([]model.Contact, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.contacts, nil
}

func (f *fakeRegistry) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type failingRoster struct{}

func (failingRoster) MemberIDs(ctx context.Context, churchID, rosterID string) ([]string, error) {
	return nil, errors.New("connection refused")
}

// failingDeliveries fails every bulk write but otherwise defers to a store.
type failingDeliveries struct {
	repository.DeliveryRepositoryInterface
}

func (failingDeliveries) BulkCreate(ctx context.Context, records []model.DeliveryRecord) error {
	return errors.New("tx aborted")
}

// recordingGateway remembers every message and fails phones in failFor.
type recordingGateway struct {
	mu      sync.Mutex
	sent    []gateway.Message
	failFor map[string]bool
}

func (g *recordingGateway) Deliver(ctx context.Context, msg gateway.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, msg)
	if g.failFor[msg.Phone] {
		return errors.New("provider rejected")
	}
	return nil
}

func (g *recordingGateway) Sent() []gateway.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gateway.Message(nil), g.sent...)
}
