//go:build integration

package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/church-broadcast/internal/db"
	"github.com/unclebandit/church-broadcast/internal/model"
)

// openTestDB connects to TEST_DATABASE_URL and applies the schema. Every
// test works under a fresh church id so runs do not interfere.
func openTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	conn, err := db.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(ctx, conn))
	return conn, "church-" + uuid.NewString()
}

func insertPerson(t *testing.T, conn *sql.DB, table, column, churchID, id, name string, value interface{}) {
	t.Helper()
	_, err := conn.Exec(
		"INSERT INTO "+table+" (id, church_id, full_name, "+column+") VALUES ($1, $2, $3, $4)",
		churchID+"-"+id, churchID, name, value,
	)
	require.NoError(t, err)
}

func TestPostgres_RegistryFiltersNullAndTagsKind(t *testing.T) {
	req := require.New(t)
	conn, church := openTestDB(t)
	ctx := context.Background()
	insertPerson(t, conn, "members", "phone", church, "m1", "Ann", "0711")
	insertPerson(t, conn, "members", "phone", church, "m2", "Ben", nil)
	insertPerson(t, conn, "leaders", "email", church, "l1", "Pastor John", "john@grace.org")

	members := NewRegistryRepository(conn, MembersTable)
	got, err := members.ListContacts(ctx, church)
	req.NoError(err)
	req.Equal([]model.Contact{{ID: church + "-m1", Name: "Ann", Phone: "0711", Kind: model.KindPhone}}, got)

	got, err = members.GetByIDs(ctx, church, []string{church + "-m1", church + "-m2"})
	req.NoError(err)
	req.Len(got, 1)

	leaders, err := NewRegistryRepository(conn, LeadersTable).ListContacts(ctx, church)
	req.NoError(err)
	req.Equal(model.KindEmail, leaders[0].Kind)
	req.Equal("john@grace.org", leaders[0].Phone)
}

func TestPostgres_RosterMemberIDs(t *testing.T) {
	req := require.New(t)
	conn, church := openTestDB(t)
	ctx := context.Background()
	_, err := conn.Exec(`INSERT INTO ministries (id, church_id, name, member_ids) VALUES ($1, $2, 'Choir', ARRAY['a','b'])`,
		church+"-choir", church)
	req.NoError(err)

	rosters := &RosterRepository{DB: conn}
	ids, err := rosters.MemberIDs(ctx, church, church+"-choir")
	req.NoError(err)
	req.Equal([]string{"a", "b"}, ids)

	ids, err = rosters.MemberIDs(ctx, church, "missing")
	req.NoError(err)
	req.Nil(ids)
}

func TestPostgres_DeliveryLedger(t *testing.T) {
	req := require.New(t)
	conn, church := openTestDB(t)
	ctx := context.Background()
	repo := &DeliveryRepository{DB: conn}
	at := time.Now().UTC().Truncate(time.Second)
	campaign := uuid.NewString()

	records := []model.DeliveryRecord{
		{ID: uuid.NewString(), CampaignID: campaign, ChurchID: church, ContactID: "m1", Name: "Ann", Phone: "0711", RenderedBody: "Hi Ann", Status: model.DeliveryPending, CreatedAt: at},
		{ID: uuid.NewString(), CampaignID: campaign, ChurchID: church, ContactID: "m2", Name: "Ben", Phone: "0722", RenderedBody: "Hi Ben", Status: model.DeliveryPending, CreatedAt: at.Add(time.Second)},
	}
	req.NoError(repo.BulkCreate(ctx, records))

	// a duplicate id aborts the whole batch
	dup := []model.DeliveryRecord{
		{ID: uuid.NewString(), CampaignID: campaign, ChurchID: church, ContactID: "m3", Phone: "0733", RenderedBody: "x", Status: model.DeliveryPending, CreatedAt: at},
		records[0],
	}
	req.Error(repo.BulkCreate(ctx, dup))

	got, err := repo.ListByCampaign(ctx, church, campaign)
	req.NoError(err)
	req.Len(got, 2)
	req.Equal("Hi Ann", got[0].RenderedBody)
	req.Nil(got[0].UpdatedAt)

	updated, err := repo.UpdateStatus(ctx, records[0].ID, model.DeliverySent, "")
	req.NoError(err)
	req.True(updated)
	updated, err = repo.UpdateStatus(ctx, records[0].ID, model.DeliveryFailed, "late")
	req.NoError(err)
	req.False(updated)

	stats, err := repo.GetCampaignStats(ctx, church, campaign)
	req.NoError(err)
	req.Equal(map[model.DeliveryStatus]int{model.DeliveryPending: 1, model.DeliverySent: 1, model.DeliveryFailed: 0}, stats)

	history, err := repo.ListOutbound(ctx, church, "+0722")
	req.NoError(err)
	req.Len(history, 1)
	req.Equal("Hi Ben", history[0].Body)

	history, err = repo.ListOutbound(ctx, church, "")
	req.NoError(err)
	req.Len(history, 2)
}

func TestPostgres_ConversationQueries(t *testing.T) {
	req := require.New(t)
	conn, church := openTestDB(t)
	ctx := context.Background()
	at := time.Now().UTC().Truncate(time.Second)

	for i, body := range []string{"first", "second"} {
		_, err := conn.Exec(
			`INSERT INTO inbound_messages (id, church_id, phone, body, contact_name, received_at) VALUES ($1, $2, $3, $4, 'Ann', $5)`,
			uuid.NewString(), church, "+254 711 000 001", body, at.Add(time.Duration(i)*2*time.Minute),
		)
		req.NoError(err)
	}
	req.NoError((&DeliveryRepository{DB: conn}).BulkCreate(ctx, []model.DeliveryRecord{{
		ID: uuid.NewString(), CampaignID: uuid.NewString(), ChurchID: church, ContactID: "m1", Name: "Ann",
		Phone: "254711000001", RenderedBody: "reply", Status: model.DeliveryPending, CreatedAt: at.Add(time.Minute),
	}}))

	repo := &ConversationRepository{DB: conn}
	inbound, err := repo.ListInbound(ctx, church, "254711000001")
	req.NoError(err)
	req.Len(inbound, 2)

	timeline, err := repo.Timeline(ctx, church, "+254711000001")
	req.NoError(err)
	req.Len(timeline, 3)
	req.Equal([]string{"first", "reply", "second"}, []string{timeline[0].Body, timeline[1].Body, timeline[2].Body})
	req.Equal(model.Outbound, timeline[1].Direction)

	n, err := repo.MarkRead(ctx, church, "254-711-000-001")
	req.NoError(err)
	req.EqualValues(2, n)
	n, err = repo.MarkRead(ctx, church, "254711000001")
	req.NoError(err)
	req.Zero(n)
}
