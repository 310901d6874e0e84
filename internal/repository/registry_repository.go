package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/unclebandit/church-broadcast/internal/model"
)

// PersonRegistry is one source of phone-bearing people.
type PersonRegistry interface {
	Name() string
	ListContacts(ctx context.Context, churchID string) ([]model.Contact, error)
}

// MemberLookup fetches specific members, used for roster expansion.
type MemberLookup interface {
	GetByIDs(ctx context.Context, churchID string, ids []string) ([]model.Contact, error)
}

// RegistryTable describes how a registry table maps onto a Contact.
type RegistryTable struct {
	Name          string
	Table         string
	ContactColumn string
	Kind          model.ContactKind
}

var (
	MembersTable     = RegistryTable{Name: "members", Table: "members", ContactColumn: "phone", Kind: model.KindPhone}
	LeadersTable     = RegistryTable{Name: "leaders", Table: "leaders", ContactColumn: "email", Kind: model.KindEmail}
	VolunteersTable  = RegistryTable{Name: "volunteers", Table: "volunteers", ContactColumn: "phone", Kind: model.KindPhone}
	VisitorsTable    = RegistryTable{Name: "visitors", Table: "visitors", ContactColumn: "phone", Kind: model.KindPhone}
	NewConvertsTable = RegistryTable{Name: "new-converts", Table: "new_converts", ContactColumn: "phone", Kind: model.KindPhone}
)

// RegistryRepository reads one registry table. Table and column names come
// from the fixed RegistryTable values above, never from callers.
type RegistryRepository struct {
	DB    *sql.DB
	Table RegistryTable
}

func NewRegistryRepository(db *sql.DB, table RegistryTable) *RegistryRepository {
	return &RegistryRepository{DB: db, Table: table}
}

func (r *RegistryRepository) Name() string { return r.Table.Name }

func (r *RegistryRepository) ListContacts(ctx context.Context, churchID string) ([]model.Contact, error) {
	query := fmt.Sprintf(`
        SELECT id, full_name, %[1]s
        FROM %[2]s
        WHERE church_id = $1 AND %[1]s IS NOT NULL
        ORDER BY created_at, id
    `, r.Table.ContactColumn, r.Table.Table)

	rows, err := r.DB.QueryContext(ctx, query, churchID)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.Table.Name, err)
	}
	defer rows.Close()
	return scanContacts(rows, r.Table.Kind)
}

// RegistryTables lists the registries in the order "all" merges them.
var RegistryTables = []RegistryTable{MembersTable, LeadersTable, VolunteersTable, VisitorsTable, NewConvertsTable}

// TableByName returns the registry with the given audience name.
func TableByName(name string) (RegistryTable, bool) {
	for _, t := range RegistryTables {
		if t.Name == name {
			return t, true
		}
	}
	return RegistryTable{}, false
}

// GetByIDs returns the members among ids that have a contact value, in
// created order. The NULL filter matches ListContacts.
func (r *RegistryRepository) GetByIDs(ctx context.Context, churchID string, ids []string) ([]model.Contact, error) {
	if len(ids) == 0 {
		return []model.Contact{}, nil
	}
	query := fmt.Sprintf(`
        SELECT id, full_name, %[1]s
        FROM %[2]s
        WHERE church_id = $1 AND id = ANY($2) AND %[1]s IS NOT NULL
        ORDER BY created_at, id
    `, r.Table.ContactColumn, r.Table.Table)

	rows, err := r.DB.QueryContext(ctx, query, churchID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("query %s by ids: %w", r.Table.Name, err)
	}
	defer rows.Close()
	return scanContacts(rows, r.Table.Kind)
}

func scanContacts(rows *sql.Rows, kind model.ContactKind) ([]model.Contact, error) {
	contacts := []model.Contact{}
	for rows.Next() {
		c := model.Contact{Kind: kind}
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

var (
	_ PersonRegistry = (*RegistryRepository)(nil)
	_ MemberLookup   = (*RegistryRepository)(nil)
)
