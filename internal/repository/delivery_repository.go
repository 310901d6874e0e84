package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/unclebandit/church-broadcast/internal/model"
)

type DeliveryRepositoryInterface interface {
	// BulkCreate writes every record in one transaction or none of them.
	BulkCreate(ctx context.Context, records []model.DeliveryRecord) error
	ListByCampaign(ctx context.Context, churchID, campaignID string) ([]model.DeliveryRecord, error)
	GetCampaignStats(ctx context.Context, churchID, campaignID string) (map[model.DeliveryStatus]int, error)
	// ListOutbound returns the ledger as conversation history. An empty
	// phone means every phone of the church.
	ListOutbound(ctx context.Context, churchID, phone string) ([]model.OutboundHistoryEntry, error)
	// UpdateStatus moves a pending record to a terminal status. It reports
	// false when the record was missing or no longer pending.
	UpdateStatus(ctx context.Context, id string, status model.DeliveryStatus, lastError string) (bool, error)
}

type DeliveryRepository struct {
	DB *sql.DB
}

func (r *DeliveryRepository) BulkCreate(ctx context.Context, records []model.DeliveryRecord) (err error) {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("delivery_records",
		"id", "campaign_id", "church_id", "contact_id", "name", "phone",
		"rendered_body", "status", "sent_by", "last_error", "created_at",
	))
	if err != nil {
		return fmt.Errorf("prepare copy: %w", err)
	}

	for _, rec := range records {
		if _, err = stmt.ExecContext(ctx,
			rec.ID, rec.CampaignID, rec.ChurchID, rec.ContactID, rec.Name, rec.Phone,
			rec.RenderedBody, string(rec.Status), rec.SentBy, rec.LastError, rec.CreatedAt,
		); err != nil {
			_ = stmt.Close()
			return fmt.Errorf("copy record %s: %w", rec.ID, err)
		}
	}
	if _, err = stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return fmt.Errorf("flush copy: %w", err)
	}
	if err = stmt.Close(); err != nil {
		return fmt.Errorf("close copy: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *DeliveryRepository) ListByCampaign(ctx context.Context, churchID, campaignID string) ([]model.DeliveryRecord, error) {
	query := `
        SELECT id, campaign_id, church_id, contact_id, name, phone, rendered_body,
               status, sent_by, last_error, created_at, updated_at
        FROM delivery_records
        WHERE church_id = $1 AND campaign_id = $2
        ORDER BY created_at, id
    `
	rows, err := r.DB.QueryContext(ctx, query, churchID, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []model.DeliveryRecord{}
	for rows.Next() {
		var rec model.DeliveryRecord
		var status string
		if err := rows.Scan(
			&rec.ID, &rec.CampaignID, &rec.ChurchID, &rec.ContactID, &rec.Name, &rec.Phone,
			&rec.RenderedBody, &status, &rec.SentBy, &rec.LastError, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		rec.Status = model.DeliveryStatus(status)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *DeliveryRepository) GetCampaignStats(ctx context.Context, churchID, campaignID string) (map[model.DeliveryStatus]int, error) {
	query := `
        SELECT status, COUNT(*)
        FROM delivery_records
        WHERE church_id = $1 AND campaign_id = $2
        GROUP BY status
    `
	rows, err := r.DB.QueryContext(ctx, query, churchID, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[model.DeliveryStatus]int{
		model.DeliveryPending: 0,
		model.DeliverySent:    0,
		model.DeliveryFailed:  0,
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[model.DeliveryStatus(status)] = count
	}
	return stats, rows.Err()
}

func (r *DeliveryRepository) ListOutbound(ctx context.Context, churchID, phone string) ([]model.OutboundHistoryEntry, error) {
	query := `
        SELECT phone, rendered_body, name, created_at
        FROM delivery_records
        WHERE church_id = $1 AND ($2::text = '' OR phone = $2)
        ORDER BY created_at, id
    `
	rows, err := r.DB.QueryContext(ctx, query, churchID, model.NormalizeAddress(phone))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.OutboundHistoryEntry{}
	for rows.Next() {
		var e model.OutboundHistoryEntry
		if err := rows.Scan(&e.Phone, &e.Body, &e.ContactName, &e.Timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *DeliveryRepository) UpdateStatus(ctx context.Context, id string, status model.DeliveryStatus, lastError string) (bool, error) {
	query := `
        UPDATE delivery_records
        SET status = $1, last_error = $2, updated_at = NOW()
        WHERE id = $3 AND status = 'pending'
    `
	res, err := r.DB.ExecContext(ctx, query, string(status), lastError, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

var _ DeliveryRepositoryInterface = (*DeliveryRepository)(nil)
