package postgres

import (
	"context"
	"time"

	"github.com/Kerhoff/GiftboT/internal/models"
	"github.com/Kerhoff/GiftboT/internal/repository"
)

const reservationColumns = `id, item_id, user_id, created_at`

type reservationRepository struct {
	db querier
}

// NewReservationRepository creates a new item reservation repository
func NewReservationRepository(db querier) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

func scanReservation(row rowScanner) (*models.ItemReservation, error) {
	res := &models.ItemReservation{}
	if err := row.Scan(&res.ID, &res.ItemID, &res.UserID, &res.CreatedAt); err != nil {
		return nil, err
	}
	return res, nil
}

// Create inserts a reservation. item_reservations.item_id is unique, so a
// concurrent second reservation fails with repository.ErrDuplicate.
func (r *reservationRepository) Create(ctx context.Context, reservation *models.ItemReservation) (*models.ItemReservation, error) {
	query := `
		INSERT INTO item_reservations (item_id, user_id, created_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	reservation.CreatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		reservation.ItemID,
		reservation.UserID,
		reservation.CreatedAt,
	).Scan(&reservation.ID, &reservation.CreatedAt)

	if err != nil {
		return nil, classify(err, "create item reservation")
	}
	return reservation, nil
}

func (r *reservationRepository) FindByItem(ctx context.Context, itemID int64) (*models.ItemReservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM item_reservations WHERE item_id = $1`

	res, err := scanReservation(r.db.QueryRowContext(ctx, query, itemID))
	if err != nil {
		return nil, classify(err, "find item reservation")
	}
	return res, nil
}

func (r *reservationRepository) ListByUser(ctx context.Context, userID int64) ([]*models.ItemReservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM item_reservations WHERE user_id = $1 ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, classify(err, "query item reservations")
	}
	defer rows.Close()

	var reservations []*models.ItemReservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, classify(err, "scan item reservation")
		}
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}

func (r *reservationRepository) DeleteByItem(ctx context.Context, itemID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM item_reservations WHERE item_id = $1`, itemID)
	if err != nil {
		return classify(err, "delete item reservation")
	}
	return expectOne(result)
}
