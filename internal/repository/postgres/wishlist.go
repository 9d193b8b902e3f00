package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/Kerhoff/GiftboT/internal/models"
	"github.com/Kerhoff/GiftboT/internal/repository"
)

const wishlistColumns = `id, name, description, user_id, profile_id, event_id, is_event_wishlist, created_at, updated_at`

type wishlistRepository struct {
	db querier
}

// NewWishlistRepository creates a new wishlist repository
func NewWishlistRepository(db querier) repository.WishlistRepository {
	return &wishlistRepository{db: db}
}

func scanWishlist(row rowScanner) (*models.Wishlist, error) {
	w := &models.Wishlist{}
	var eventID sql.NullInt64
	err := row.Scan(
		&w.ID,
		&w.Name,
		&w.Description,
		&w.UserID,
		&w.ProfileID,
		&eventID,
		&w.IsEventWishlist,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	w.EventID = int64Ptr(eventID)
	return w, nil
}

func (r *wishlistRepository) queryWishlists(ctx context.Context, query string, args ...any) ([]*models.Wishlist, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "query wishlists")
	}
	defer rows.Close()

	var lists []*models.Wishlist
	for rows.Next() {
		w, err := scanWishlist(rows)
		if err != nil {
			return nil, classify(err, "scan wishlist")
		}
		lists = append(lists, w)
	}
	return lists, rows.Err()
}

func (r *wishlistRepository) Create(ctx context.Context, wishlist *models.Wishlist) (*models.Wishlist, error) {
	query := `
		INSERT INTO wishlists (name, description, user_id, profile_id, event_id, is_event_wishlist, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	wishlist.CreatedAt = now
	wishlist.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		wishlist.Name,
		wishlist.Description,
		wishlist.UserID,
		wishlist.ProfileID,
		nullInt64(wishlist.EventID),
		wishlist.IsEventWishlist,
		wishlist.CreatedAt,
		wishlist.UpdatedAt,
	).Scan(&wishlist.ID, &wishlist.CreatedAt, &wishlist.UpdatedAt)

	if err != nil {
		return nil, classify(err, "create wishlist")
	}
	return wishlist, nil
}

func (r *wishlistRepository) GetByID(ctx context.Context, id int64) (*models.Wishlist, error) {
	query := `SELECT ` + wishlistColumns + ` FROM wishlists WHERE id = $1`

	w, err := scanWishlist(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, classify(err, "get wishlist by ID")
	}
	return w, nil
}

func (r *wishlistRepository) FindByIDAndOwner(ctx context.Context, id, userID int64) (*models.Wishlist, error) {
	query := `SELECT ` + wishlistColumns + ` FROM wishlists WHERE id = $1 AND user_id = $2`

	w, err := scanWishlist(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, classify(err, "find wishlist by owner")
	}
	return w, nil
}

func (r *wishlistRepository) GetByEventID(ctx context.Context, eventID int64) (*models.Wishlist, error) {
	query := `SELECT ` + wishlistColumns + ` FROM wishlists WHERE event_id = $1`

	w, err := scanWishlist(r.db.QueryRowContext(ctx, query, eventID))
	if err != nil {
		return nil, classify(err, "get wishlist by event")
	}
	return w, nil
}

func (r *wishlistRepository) ListByUsers(ctx context.Context, userIDs []int64) ([]*models.Wishlist, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + wishlistColumns + ` FROM wishlists WHERE user_id = ANY($1) ORDER BY id ASC`
	return r.queryWishlists(ctx, query, pq.Array(userIDs))
}

func (r *wishlistRepository) ListByProfile(ctx context.Context, profileID int64) ([]*models.Wishlist, error) {
	query := `SELECT ` + wishlistColumns + ` FROM wishlists WHERE profile_id = $1 ORDER BY id ASC`
	return r.queryWishlists(ctx, query, profileID)
}

func (r *wishlistRepository) Update(ctx context.Context, wishlist *models.Wishlist) (*models.Wishlist, error) {
	query := `
		UPDATE wishlists
		SET name = $2, description = $3, updated_at = $4
		WHERE id = $1
		RETURNING updated_at`

	wishlist.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		wishlist.ID,
		wishlist.Name,
		wishlist.Description,
		wishlist.UpdatedAt,
	).Scan(&wishlist.UpdatedAt)

	if err != nil {
		return nil, classify(err, "update wishlist")
	}
	return wishlist, nil
}

func (r *wishlistRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM wishlists WHERE id = $1`, id)
	if err != nil {
		return classify(err, "delete wishlist")
	}
	return expectOne(result)
}
