package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/unclebandit/church-broadcast/internal/model"
)

type memoryPerson struct {
	churchID string
	contact  model.Contact
	// false models a NULL contact column
	hasPhone bool
}

// MemoryStore keeps every table in process memory. It backs STORE=memory
// and the HTTP tests.
type MemoryStore struct {
	mu         sync.RWMutex
	registries map[string][]memoryPerson
	rosters    map[string][]string
	records    []model.DeliveryRecord
	inbound    []model.InboundMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		registries: map[string][]memoryPerson{},
		rosters:    map[string][]string{},
	}
}

// AddPerson seeds a registry row. An empty phone is stored as NULL.
func (s *MemoryStore) AddPerson(registry, churchID string, c model.Contact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registries[registry] = append(s.registries[registry], memoryPerson{
		churchID: churchID,
		contact:  c,
		hasPhone: c.Phone != "",
	})
}

func (s *MemoryStore) AddRoster(churchID, rosterID string, memberIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rosters[churchID+"/"+rosterID] = append([]string(nil), memberIDs...)
}

func (s *MemoryStore) AddInbound(m model.InboundMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	s.inbound = append(s.inbound, m)
}

// Registry returns a PersonRegistry view over one seeded registry. Known
// registry names take their contact kind from RegistryTables.
func (s *MemoryStore) Registry(name string) *MemoryRegistry {
	kind := model.KindPhone
	if t, ok := TableByName(name); ok {
		kind = t.Kind
	}
	return &MemoryRegistry{store: s, name: name, kind: kind}
}

type MemoryRegistry struct {
	store *MemoryStore
	name  string
	kind  model.ContactKind
}

func (r *MemoryRegistry) toContact(p memoryPerson, _ int) model.Contact {
	c := p.contact
	c.Kind = r.kind
	return c
}

func (r *MemoryRegistry) Name() string { return r.name }

func (r *MemoryRegistry) ListContacts(ctx context.Context, churchID string) ([]model.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rows := lo.Filter(r.store.registries[r.name], func(p memoryPerson, _ int) bool {
		return p.churchID == churchID && p.hasPhone
	})
	return lo.Map(rows, r.toContact), nil
}

func (r *MemoryRegistry) GetByIDs(ctx context.Context, churchID string, ids []string) ([]model.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wanted := lo.SliceToMap(ids, func(id string) (string, bool) { return id, true })
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	contacts := []model.Contact{}
	for _, p := range r.store.registries[r.name] {
		if p.churchID == churchID && p.hasPhone && wanted[p.contact.ID] {
			contacts = append(contacts, r.toContact(p, 0))
		}
	}
	return contacts, nil
}

func (s *MemoryStore) MemberIDs(ctx context.Context, churchID, rosterID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids, ok := s.rosters[churchID+"/"+rosterID]
	if !ok {
		return nil, nil
	}
	return append([]string(nil), ids...), nil
}

func (s *MemoryStore) BulkCreate(ctx context.Context, records []model.DeliveryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := lo.SliceToMap(s.records, func(r model.DeliveryRecord) (string, bool) { return r.ID, true })
	for _, rec := range records {
		if seen[rec.ID] {
			return fmt.Errorf("duplicate delivery record id %s", rec.ID)
		}
		seen[rec.ID] = true
	}
	s.records = append(s.records, records...)
	return nil
}

func (s *MemoryStore) ListByCampaign(ctx context.Context, churchID, campaignID string) ([]model.DeliveryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := lo.Filter(s.records, func(r model.DeliveryRecord, _ int) bool {
		return r.ChurchID == churchID && r.CampaignID == campaignID
	})
	return append([]model.DeliveryRecord{}, records...), nil
}

func (s *MemoryStore) GetCampaignStats(ctx context.Context, churchID, campaignID string) (map[model.DeliveryStatus]int, error) {
	records, _ := s.ListByCampaign(ctx, churchID, campaignID)
	stats := map[model.DeliveryStatus]int{
		model.DeliveryPending: 0,
		model.DeliverySent:    0,
		model.DeliveryFailed:  0,
	}
	for _, r := range records {
		stats[r.Status]++
	}
	return stats, nil
}

func (s *MemoryStore) ListOutbound(ctx context.Context, churchID, phone string) ([]model.OutboundHistoryEntry, error) {
	phone = model.NormalizeAddress(phone)
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := []model.OutboundHistoryEntry{}
	for _, r := range s.records {
		if r.ChurchID == churchID && (phone == "" || r.Phone == phone) {
			entries = append(entries, r.History())
		}
	}
	return entries, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, status model.DeliveryStatus, lastError string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == id && s.records[i].Status == model.DeliveryPending {
			now := time.Now()
			s.records[i].Status = status
			s.records[i].LastError = lastError
			s.records[i].UpdatedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) ListInbound(ctx context.Context, churchID, phone string) ([]model.InboundMessage, error) {
	phone = model.NormalizePhone(phone)
	s.mu.RLock()
	defer s.mu.RUnlock()
	messages := lo.Filter(s.inbound, func(m model.InboundMessage, _ int) bool {
		return m.ChurchID == churchID && (phone == "" || model.NormalizePhone(m.Phone) == phone)
	})
	return append([]model.InboundMessage{}, messages...), nil
}

func (s *MemoryStore) Timeline(ctx context.Context, churchID, phone string) ([]model.TimelineEntry, error) {
	var inbound []model.InboundMessage
	if model.NormalizePhone(phone) != "" {
		inbound, _ = s.ListInbound(ctx, churchID, phone)
	}
	outbound, _ := s.ListOutbound(ctx, churchID, phone)

	entries := make([]model.TimelineEntry, 0, len(inbound)+len(outbound))
	for _, m := range inbound {
		entries = append(entries, model.TimelineEntry{
			Direction: model.Inbound, Phone: m.Phone, Body: m.Body,
			ContactName: m.ContactName, Timestamp: m.Timestamp, IsRead: m.IsRead,
		})
	}
	for _, o := range outbound {
		entries = append(entries, model.TimelineEntry{
			Direction: model.Outbound, Phone: o.Phone, Body: o.Body,
			ContactName: o.ContactName, Timestamp: o.Timestamp, IsRead: true,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Timestamp.Before(entries[j].Timestamp)
		}
		return entries[i].Direction < entries[j].Direction
	})
	return entries, nil
}

func (s *MemoryStore) MarkRead(ctx context.Context, churchID, phone string) (int64, error) {
	phone = model.NormalizePhone(phone)
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.inbound {
		m := &s.inbound[i]
		if m.ChurchID == churchID && model.NormalizePhone(m.Phone) == phone && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

var (
	_ PersonRegistry                  = (*MemoryRegistry)(nil)
	_ MemberLookup                    = (*MemoryRegistry)(nil)
	_ RosterRepositoryInterface       = (*MemoryStore)(nil)
	_ DeliveryRepositoryInterface     = (*MemoryStore)(nil)
	_ ConversationRepositoryInterface = (*MemoryStore)(nil)
)
