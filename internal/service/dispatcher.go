package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	appErrors "github.com/unclebandit/church-broadcast/internal/errors"
	"github.com/unclebandit/church-broadcast/internal/gateway"
	"github.com/unclebandit/church-broadcast/internal/model"
	"github.com/unclebandit/church-broadcast/internal/queue"
	"github.com/unclebandit/church-broadcast/internal/repository"
)

type BroadcastRequest struct {
	ChurchID string `json:"church_id"`
	Target   string `json:"target"`
	Template string `json:"template"`
	SentBy   string `json:"sent_by"`
}

// BroadcastResult counts attempts, not deliveries: SuccessCount is the
// number of messages handed to the dispatch pool, ErrorCount the number of
// contacts skipped for lacking a phone. Duplicates are contacts sharing a
// phone with an earlier recipient; they get no record of their own.
type BroadcastResult struct {
	CampaignID   string `json:"campaign_id"`
	Success      bool   `json:"success"`
	Summary      string `json:"summary"`
	SuccessCount int    `json:"success_count"`
	ErrorCount   int    `json:"error_count"`
	Duplicates   int    `json:"duplicates,omitempty"`
	NotQueued    int    `json:"not_queued,omitempty"`
}

type JobSubmitter interface {
	Submit(ctx context.Context, job queue.Job) error
}

type CampaignDispatcher struct {
	Resolver     AudienceResolver
	DeliveryRepo repository.DeliveryRepositoryInterface
	Gateway      gateway.Gateway
	Pool         JobSubmitter
	Tracker      *DispatchTracker
	Log          *slog.Logger

	Now   func() time.Time
	NewID func() string
}

func (d *CampaignDispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now().UTC()
}

func (d *CampaignDispatcher) newID() string {
	if d.NewID != nil {
		return d.NewID()
	}
	return uuid.NewString()
}

// SendBroadcast persists one pending record per contact and only then
// schedules delivery. If the bulk write fails nothing is dispatched.
func (d *CampaignDispatcher) SendBroadcast(ctx context.Context, req BroadcastRequest) (*BroadcastResult, error) {
	if req.ChurchID == "" {
		return nil, appErrors.ErrMissingChurch
	}
	if strings.TrimSpace(req.Template) == "" {
		return nil, appErrors.ErrEmptyTemplate
	}
	target, err := model.ParseTarget(req.Target)
	if err != nil {
		return nil, appErrors.NewInvalidTarget(req.Target, err)
	}

	resolved, err := d.Resolver.Resolve(ctx, target, req.ChurchID)
	if err != nil {
		return nil, err
	}

	campaignID := d.newID()
	createdAt := d.now()
	records := lo.Map(resolved.Contacts, func(c model.Contact, _ int) model.DeliveryRecord {
		return model.DeliveryRecord{
			ID:           d.newID(),
			CampaignID:   campaignID,
			ChurchID:     req.ChurchID,
			ContactID:    c.ID,
			Name:         c.Name,
			Phone:        c.Phone,
			RenderedBody: RenderTemplate(req.Template, c),
			Status:       model.DeliveryPending,
			SentBy:       req.SentBy,
			CreatedAt:    createdAt,
		}
	})

	log := d.Log.With("campaign_id", campaignID, "church_id", req.ChurchID, "target", target.String())

	if err := d.DeliveryRepo.BulkCreate(ctx, records); err != nil {
		log.Error("failed to persist delivery records, aborting broadcast", "records", len(records), "error", err)
		return &BroadcastResult{
			CampaignID: campaignID,
			Success:    false,
			Summary:    "Broadcast aborted: delivery records could not be saved",
			ErrorCount: resolved.Skipped,
			Duplicates: resolved.Duplicates,
		}, appErrors.NewPersistenceFailure(campaignID, err)
	}

	result := &BroadcastResult{CampaignID: campaignID, ErrorCount: resolved.Skipped, Duplicates: resolved.Duplicates}
	for _, rec := range records {
		msg := gateway.Message{DeliveryID: rec.ID, Phone: rec.Phone, Body: rec.RenderedBody}
		err := d.Pool.Submit(ctx, queue.Job{
			CampaignID: campaignID,
			Key:        rec.ID,
			Run: func(ctx context.Context) error {
				return d.Gateway.Deliver(ctx, msg)
			},
		})
		if err != nil {
			log.Warn("could not schedule delivery", "delivery_id", rec.ID, "error", err)
			result.NotQueued++
			continue
		}
		result.SuccessCount++
	}

	result.Success = result.ErrorCount == 0
	result.Summary = summarize(result)
	log.Info("broadcast dispatched",
		"queued", result.SuccessCount, "skipped", result.ErrorCount,
		"duplicates", result.Duplicates, "not_queued", result.NotQueued)
	return result, nil
}

func summarize(r *BroadcastResult) string {
	s := fmt.Sprintf("Message sent to %d contact(s)", r.SuccessCount)
	if r.ErrorCount > 0 {
		s += fmt.Sprintf(", %d contact(s) skipped without a phone number", r.ErrorCount)
	}
	if r.Duplicates > 0 {
		s += fmt.Sprintf(", %d duplicate(s) sharing a number with another contact", r.Duplicates)
	}
	if r.NotQueued > 0 {
		s += fmt.Sprintf(", %d could not be queued", r.NotQueued)
	}
	return s
}

// Preview renders the template for one contact without sending anything.
func (d *CampaignDispatcher) Preview(template string, c model.Contact) (string, error) {
	if strings.TrimSpace(template) == "" {
		return "", appErrors.ErrEmptyTemplate
	}
	return RenderTemplate(template, c), nil
}

// CampaignReport is the audit view of one campaign.
func (d *CampaignDispatcher) CampaignReport(ctx context.Context, churchID, campaignID string) (*model.CampaignReport, error) {
	if churchID == "" {
		return nil, appErrors.ErrMissingChurch
	}
	records, err := d.DeliveryRepo.ListByCampaign(ctx, churchID, campaignID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, appErrors.NewCampaignNotFound(campaignID)
	}
	stats, err := d.DeliveryRepo.GetCampaignStats(ctx, churchID, campaignID)
	if err != nil {
		return nil, err
	}

	report := &model.CampaignReport{CampaignID: campaignID, Records: records, Stats: stats}
	if d.Tracker != nil {
		report.Dispatch = d.Tracker.Get(campaignID)
	}
	return report, nil
}
