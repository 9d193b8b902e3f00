package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Kerhoff/GiftboT/internal/models"
	"github.com/Kerhoff/GiftboT/internal/repository"
)

const invitationColumns = `id, event_id, friend_id, status, created_at, updated_at`

type invitationRepository struct {
	db querier
}

// NewInvitationRepository creates a new event invitation repository
func NewInvitationRepository(db querier) repository.InvitationRepository {
	return &invitationRepository{db: db}
}

func scanInvitation(row rowScanner) (*models.EventInvitation, error) {
	inv := &models.EventInvitation{}
	if err := row.Scan(&inv.ID, &inv.EventID, &inv.FriendID, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) Create(ctx context.Context, invitation *models.EventInvitation) (*models.EventInvitation, error) {
	query := `
		INSERT INTO event_invitations (event_id, friend_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	invitation.CreatedAt = now
	invitation.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		invitation.EventID,
		invitation.FriendID,
		invitation.Status,
		invitation.CreatedAt,
		invitation.UpdatedAt,
	).Scan(&invitation.ID, &invitation.CreatedAt, &invitation.UpdatedAt)

	if err != nil {
		return nil, classify(err, "create event invitation")
	}
	return invitation, nil
}

func (r *invitationRepository) Find(ctx context.Context, eventID, friendID int64) (*models.EventInvitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM event_invitations WHERE event_id = $1 AND friend_id = $2`

	inv, err := scanInvitation(r.db.QueryRowContext(ctx, query, eventID, friendID))
	if err != nil {
		return nil, classify(err, "find event invitation")
	}
	return inv, nil
}

func (r *invitationRepository) ListByEvent(ctx context.Context, eventID int64) ([]*models.EventInvitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM event_invitations WHERE event_id = $1 ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, classify(err, "query event invitations")
	}
	defer rows.Close()

	var invitations []*models.EventInvitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, classify(err, "scan event invitation")
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

func (r *invitationRepository) ListByUser(ctx context.Context, userID int64) ([]*models.EventInvitation, error) {
	query := `
		SELECT ` + prefixed("i", invitationColumns) + `,
		       ` + prefixed("e", eventColumns) + `,
		       ` + prefixed("u", userColumns) + `
		FROM event_invitations i
		INNER JOIN events e ON e.id = i.event_id
		INNER JOIN users u ON u.id = e.host_id
		WHERE i.friend_id = $1
		ORDER BY e.date ASC, i.id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, classify(err, "query user invitations")
	}
	defer rows.Close()

	var invitations []*models.EventInvitation
	for rows.Next() {
		inv := &models.EventInvitation{}
		event, err := scanEvent(prependScanner{row: rows, dest: []any{
			&inv.ID, &inv.EventID, &inv.FriendID, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt,
		}})
		if err != nil {
			return nil, classify(err, "scan user invitation")
		}
		inv.Event = event
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

func (r *invitationRepository) UpdateStatus(ctx context.Context, id int64, status models.InvitationStatus) (*models.EventInvitation, error) {
	query := `
		UPDATE event_invitations
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4
		RETURNING ` + invitationColumns

	inv, err := scanInvitation(r.db.QueryRowContext(ctx, query, id, status, time.Now(), models.InvitationPending))
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM event_invitations WHERE id = $1)`, id).Scan(&exists); err != nil {
			return nil, classify(err, "check event invitation")
		}
		if !exists {
			return nil, repository.ErrNotFound
		}
		return nil, repository.ErrNotPending
	}
	if err != nil {
		return nil, classify(err, "update event invitation")
	}
	return inv, nil
}

func (r *invitationRepository) Delete(ctx context.Context, eventID, friendID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM event_invitations WHERE event_id = $1 AND friend_id = $2`, eventID, friendID)
	if err != nil {
		return classify(err, "delete event invitation")
	}
	return expectOne(result)
}

// prependScanner lets a joined row feed leading columns into extra
// destinations before an entity scanner consumes the rest.
type prependScanner struct {
	row  rowScanner
	dest []any
}

func (p prependScanner) Scan(dest ...any) error {
	return p.row.Scan(append(append([]any{}, p.dest...), dest...)...)
}
