package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	appErrors "github.com/unclebandit/church-broadcast/internal/errors"
	"github.com/unclebandit/church-broadcast/internal/model"
	"github.com/unclebandit/church-broadcast/internal/repository"
)

// Resolution is the outcome of resolving a target. Skipped counts contacts
// that were found but had no usable phone number; Duplicates counts contacts
// dropped because an earlier contact already had the same phone or email.
type Resolution struct {
	Contacts   []model.Contact `json:"contacts"`
	Skipped    int             `json:"skipped"`
	Duplicates int             `json:"duplicates"`
}

type AudienceResolver interface {
	Resolve(ctx context.Context, target model.DistributionTarget, churchID string) (Resolution, error)
}

// ContactResolver turns a distribution target into deduplicated contacts.
// Registries is ordered: for "all" the earlier registry wins a duplicate id.
// A failing registry is logged and contributes nothing.
type ContactResolver struct {
	Registries []repository.PersonRegistry
	Members    repository.MemberLookup
	Rosters    repository.RosterRepositoryInterface
	Log        *slog.Logger
}

func (r *ContactResolver) Resolve(ctx context.Context, target model.DistributionTarget, churchID string) (Resolution, error) {
	if churchID == "" {
		return Resolution{}, appErrors.ErrMissingChurch
	}

	if target.IsRoster() {
		return mergeContacts(r.resolveRoster(ctx, target.RosterID, churchID)), nil
	}

	switch target.Audience {
	case model.AudienceAll, model.AudienceMembers:
		return mergeContacts(r.queryAll(ctx, churchID)...), nil
	case "":
		return Resolution{}, appErrors.ErrEmptyTarget
	}

	for _, reg := range r.Registries {
		if reg.Name() == string(target.Audience) {
			return mergeContacts(r.query(ctx, reg, churchID)), nil
		}
	}
	r.Log.Warn("no registry configured for audience", "audience", target.Audience)
	return Resolution{Contacts: []model.Contact{}}, nil
}

// queryAll fans out to every registry and returns results in registry order.
func (r *ContactResolver) queryAll(ctx context.Context, churchID string) [][]model.Contact {
	results := make([][]model.Contact, len(r.Registries))
	var g errgroup.Group
	for i, reg := range r.Registries {
		g.Go(func() error {
			results[i] = r.query(ctx, reg, churchID)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *ContactResolver) query(ctx context.Context, reg repository.PersonRegistry, churchID string) []model.Contact {
	contacts, err := reg.ListContacts(ctx, churchID)
	if err != nil {
		r.Log.Warn("registry query failed, continuing without it",
			"registry", reg.Name(), "church_id", churchID, "error", err)
		return nil
	}
	return contacts
}

func (r *ContactResolver) resolveRoster(ctx context.Context, rosterID, churchID string) []model.Contact {
	ids, err := r.Rosters.MemberIDs(ctx, churchID, rosterID)
	if err != nil {
		r.Log.Warn("roster lookup failed", "roster_id", rosterID, "church_id", churchID, "error", err)
		return nil
	}
	if len(ids) == 0 {
		return nil
	}
	contacts, err := r.Members.GetByIDs(ctx, churchID, ids)
	if err != nil {
		r.Log.Warn("roster member lookup failed", "roster_id", rosterID, "church_id", churchID, "error", err)
		return nil
	}
	return contacts
}

// mergeContacts unions lists in order. The first occurrence of an id wins.
// Contacts whose normalized value is empty are counted as skipped, and one
// whose value was already claimed by an earlier contact is counted as a
// duplicate. Phones keep digits only; email surrogates are lowercased.
func mergeContacts(lists ...[]model.Contact) Resolution {
	res := Resolution{Contacts: []model.Contact{}}
	seenIDs := map[string]bool{}
	seenAddrs := map[string]bool{}

	for _, list := range lists {
		for _, c := range list {
			if seenIDs[c.ID] {
				continue
			}
			seenIDs[c.ID] = true

			addr := c.NormalizedContact()
			if addr == "" {
				res.Skipped++
				continue
			}
			if seenAddrs[addr] {
				res.Duplicates++
				continue
			}
			seenAddrs[addr] = true

			c.Phone = addr
			res.Contacts = append(res.Contacts, c)
		}
	}
	return res
}
