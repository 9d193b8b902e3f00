package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/Kerhoff/GiftboT/internal/models"
	"github.com/Kerhoff/GiftboT/internal/repository"
)

const eventColumns = `id, name, description, location, date, host_id, profile_id, created_at, updated_at`

var eventSelect = `
		SELECT ` + prefixed("e", eventColumns) + `,
		       ` + prefixed("u", userColumns) + `
		FROM events e
		INNER JOIN users u ON u.id = e.host_id`

type eventRepository struct {
	db querier
}

// NewEventRepository creates a new event repository
func NewEventRepository(db querier) repository.EventRepository {
	return &eventRepository{db: db}
}

func scanEvent(row rowScanner) (*models.Event, error) {
	e := &models.Event{Host: &models.User{}}
	var profileID, hostTelegramID sql.NullInt64
	err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.Location, &e.Date, &e.HostID, &profileID, &e.CreatedAt, &e.UpdatedAt,
		&e.Host.ID, &hostTelegramID, &e.Host.TelegramUsername, &e.Host.Name,
		&e.Host.FriendCode, &e.Host.Role, &e.Host.CreatedAt, &e.Host.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.ProfileID = int64Ptr(profileID)
	e.Host.TelegramID = int64Ptr(hostTelegramID)
	return e, nil
}

func (r *eventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]*models.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "query events")
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, classify(err, "scan event")
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) Create(ctx context.Context, event *models.Event) (*models.Event, error) {
	query := `
		INSERT INTO events (name, description, location, date, host_id, profile_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		event.Name,
		event.Description,
		event.Location,
		event.Date,
		event.HostID,
		nullInt64(event.ProfileID),
		event.CreatedAt,
		event.UpdatedAt,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)

	if err != nil {
		return nil, classify(err, "create event")
	}
	return event, nil
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, eventSelect+` WHERE e.id = $1`, id))
	if err != nil {
		return nil, classify(err, "get event by ID")
	}
	return e, nil
}

func (r *eventRepository) FindByIDAndOwner(ctx context.Context, id, hostID int64) (*models.Event, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, eventSelect+` WHERE e.id = $1 AND e.host_id = $2`, id, hostID))
	if err != nil {
		return nil, classify(err, "find event by owner")
	}
	return e, nil
}

func (r *eventRepository) ListByHost(ctx context.Context, hostID int64) ([]*models.Event, error) {
	return r.queryEvents(ctx, eventSelect+` WHERE e.host_id = $1 ORDER BY e.date ASC, e.id ASC`, hostID)
}

func (r *eventRepository) ListByGuest(ctx context.Context, userID int64, status models.InvitationStatus) ([]*models.Event, error) {
	query := eventSelect + `
		INNER JOIN event_invitations i ON i.event_id = e.id
		WHERE i.friend_id = $1 AND i.status = $2
		ORDER BY e.date ASC, e.id ASC`
	return r.queryEvents(ctx, query, userID, status)
}

func (r *eventRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*models.Event, error) {
	return r.queryEvents(ctx, eventSelect+` WHERE e.date >= $1 AND e.date < $2 ORDER BY e.date ASC, e.id ASC`, from, to)
}

func (r *eventRepository) Update(ctx context.Context, event *models.Event) (*models.Event, error) {
	query := `
		UPDATE events
		SET name = $2, description = $3, location = $4, date = $5, updated_at = $6
		WHERE id = $1
		RETURNING updated_at`

	event.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		event.ID,
		event.Name,
		event.Description,
		event.Location,
		event.Date,
		event.UpdatedAt,
	).Scan(&event.UpdatedAt)

	if err != nil {
		return nil, classify(err, "update event")
	}
	return event, nil
}

// Delete removes the event. Invitations and the event wishlist go with it
// through ON DELETE CASCADE.
func (r *eventRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return classify(err, "delete event")
	}
	return expectOne(result)
}
