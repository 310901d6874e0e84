package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

type RosterRepositoryInterface interface {
	// MemberIDs returns nil, nil when the roster does not exist.
	MemberIDs(ctx context.Context, churchID, rosterID string) ([]string, error)
}

// RosterRepository reads ministry rosters.
type RosterRepository struct {
	DB *sql.DB
}

func (r *RosterRepository) MemberIDs(ctx context.Context, churchID, rosterID string) ([]string, error) {
	query := `SELECT member_ids FROM ministries WHERE church_id = $1 AND id = $2`
	var ids pq.StringArray
	err := r.DB.QueryRowContext(ctx, query, churchID, rosterID).Scan(&ids)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return []string(ids), nil
}

var _ RosterRepositoryInterface = (*RosterRepository)(nil)
