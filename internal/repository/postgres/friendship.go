package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Kerhoff/GiftboT/internal/models"
	"github.com/Kerhoff/GiftboT/internal/repository"
)

// prefixed qualifies a column list with a table alias
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

var friendshipSelect = `
		SELECT f.id, f.sender_id, f.receiver_id, f.status, f.created_at, f.updated_at,
		       ` + prefixed("s", userColumns) + `,
		       ` + prefixed("r", userColumns) + `
		FROM friendships f
		INNER JOIN users s ON s.id = f.sender_id
		INNER JOIN users r ON r.id = f.receiver_id`

type friendshipRepository struct {
	db querier
}

// NewFriendshipRepository creates a new friendship repository
func NewFriendshipRepository(db querier) repository.FriendshipRepository {
	return &friendshipRepository{db: db}
}

func scanFriendship(row rowScanner) (*models.Friendship, error) {
	f := &models.Friendship{Sender: &models.User{}, Receiver: &models.User{}}
	var senderTelegramID, receiverTelegramID sql.NullInt64
	err := row.Scan(
		&f.ID, &f.SenderID, &f.ReceiverID, &f.Status, &f.CreatedAt, &f.UpdatedAt,
		&f.Sender.ID, &senderTelegramID, &f.Sender.TelegramUsername, &f.Sender.Name,
		&f.Sender.FriendCode, &f.Sender.Role, &f.Sender.CreatedAt, &f.Sender.UpdatedAt,
		&f.Receiver.ID, &receiverTelegramID, &f.Receiver.TelegramUsername, &f.Receiver.Name,
		&f.Receiver.FriendCode, &f.Receiver.Role, &f.Receiver.CreatedAt, &f.Receiver.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	f.Sender.TelegramID = int64Ptr(senderTelegramID)
	f.Receiver.TelegramID = int64Ptr(receiverTelegramID)
	return f, nil
}

func (r *friendshipRepository) Create(ctx context.Context, friendship *models.Friendship) (*models.Friendship, error) {
	query := `
		INSERT INTO friendships (sender_id, receiver_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	friendship.CreatedAt = now
	friendship.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		friendship.SenderID,
		friendship.ReceiverID,
		friendship.Status,
		friendship.CreatedAt,
		friendship.UpdatedAt,
	).Scan(&friendship.ID, &friendship.CreatedAt, &friendship.UpdatedAt)

	if err != nil {
		return nil, classify(err, "create friendship")
	}
	return friendship, nil
}

func (r *friendshipRepository) GetByID(ctx context.Context, id int64) (*models.Friendship, error) {
	f, err := scanFriendship(r.db.QueryRowContext(ctx, friendshipSelect+` WHERE f.id = $1`, id))
	if err != nil {
		return nil, classify(err, "get friendship by ID")
	}
	return f, nil
}

func (r *friendshipRepository) FindByIDAndParticipant(ctx context.Context, id, userID int64) (*models.Friendship, error) {
	query := friendshipSelect + ` WHERE f.id = $1 AND (f.sender_id = $2 OR f.receiver_id = $2)`

	f, err := scanFriendship(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, classify(err, "find friendship by participant")
	}
	return f, nil
}

func (r *friendshipRepository) FindBetween(ctx context.Context, a, b int64) (*models.Friendship, error) {
	query := friendshipSelect + `
		WHERE (f.sender_id = $1 AND f.receiver_id = $2)
		   OR (f.sender_id = $2 AND f.receiver_id = $1)
		LIMIT 1`

	f, err := scanFriendship(r.db.QueryRowContext(ctx, query, a, b))
	if err != nil {
		return nil, classify(err, "find friendship between users")
	}
	return f, nil
}

func (r *friendshipRepository) List(ctx context.Context, filters repository.FriendshipFilters) ([]*models.Friendship, error) {
	var where string
	switch filters.Direction {
	case repository.DirectionSent:
		where = `f.sender_id = $1`
	case repository.DirectionReceived:
		where = `f.receiver_id = $1`
	default:
		where = `(f.sender_id = $1 OR f.receiver_id = $1)`
	}

	args := []any{filters.UserID}
	if filters.Status != nil {
		args = append(args, *filters.Status)
		where += fmt.Sprintf(` AND f.status = $%d`, len(args))
	}

	query := friendshipSelect + ` WHERE ` + where + ` ORDER BY f.created_at ASC, f.id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "query friendships")
	}
	defer rows.Close()

	var friendships []*models.Friendship
	for rows.Next() {
		f, err := scanFriendship(rows)
		if err != nil {
			return nil, classify(err, "scan friendship")
		}
		friendships = append(friendships, f)
	}
	return friendships, rows.Err()
}

func (r *friendshipRepository) UpdateStatus(ctx context.Context, id int64, status models.FriendshipStatus) (*models.Friendship, error) {
	query := `UPDATE friendships SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`

	result, err := r.db.ExecContext(ctx, query, id, status, time.Now(), models.FriendshipPending)
	if err != nil {
		return nil, classify(err, "update friendship status")
	}
	if err := expectOne(result); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, r.notPending(ctx, id)
		}
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// notPending tells a missing row apart from one that was answered concurrently
func (r *friendshipRepository) notPending(ctx context.Context, id int64) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return repository.ErrNotPending
}

func (r *friendshipRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM friendships WHERE id = $1`, id)
	if err != nil {
		return classify(err, "delete friendship")
	}
	return expectOne(result)
}
