package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/Kerhoff/GiftboT/internal/models"
	"github.com/Kerhoff/GiftboT/internal/repository"
)

const itemColumns = `id, wishlist_id, name, description, price, url, image_url, reserved, created_at, updated_at`

type itemRepository struct {
	db querier
}

// NewItemRepository creates a new wishlist item repository
func NewItemRepository(db querier) repository.ItemRepository {
	return &itemRepository{db: db}
}

func itemDest(item *models.WishlistItem, price *sql.NullFloat64) []any {
	return []any{
		&item.ID,
		&item.WishlistID,
		&item.Name,
		&item.Description,
		price,
		&item.URL,
		&item.ImageURL,
		&item.Reserved,
		&item.CreatedAt,
		&item.UpdatedAt,
	}
}

func (r *itemRepository) Create(ctx context.Context, item *models.WishlistItem) (*models.WishlistItem, error) {
	query := `
		INSERT INTO wishlist_items (wishlist_id, name, description, price, url, image_url, reserved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, false, $7, $8)
		RETURNING id, created_at, updated_at`

	now := time.Now()
	item.Reserved = false
	item.CreatedAt = now
	item.UpdatedAt = now

	err := r.db.QueryRowContext(ctx, query,
		item.WishlistID,
		item.Name,
		item.Description,
		nullFloat64(item.Price),
		item.URL,
		item.ImageURL,
		item.CreatedAt,
		item.UpdatedAt,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)

	if err != nil {
		return nil, classify(err, "add wishlist item")
	}
	return item, nil
}

func (r *itemRepository) getWithWishlist(ctx context.Context, id int64, lock bool) (*models.WishlistItem, *models.Wishlist, error) {
	query := `
		SELECT ` + prefixed("i", itemColumns) + `,
		       ` + prefixed("w", wishlistColumns) + `
		FROM wishlist_items i
		INNER JOIN wishlists w ON w.id = i.wishlist_id
		WHERE i.id = $1`
	if lock {
		query += ` FOR UPDATE OF i`
	}

	item := &models.WishlistItem{}
	var price sql.NullFloat64
	list, err := scanWishlist(prependScanner{
		row:  r.db.QueryRowContext(ctx, query, id),
		dest: itemDest(item, &price),
	})
	if err != nil {
		return nil, nil, classify(err, "get wishlist item")
	}
	item.Price = float64Ptr(price)
	return item, list, nil
}

func (r *itemRepository) GetWithWishlist(ctx context.Context, id int64) (*models.WishlistItem, *models.Wishlist, error) {
	return r.getWithWishlist(ctx, id, false)
}

func (r *itemRepository) GetForUpdate(ctx context.Context, id int64) (*models.WishlistItem, *models.Wishlist, error) {
	return r.getWithWishlist(ctx, id, true)
}

func (r *itemRepository) ListByWishlists(ctx context.Context, wishlistIDs []int64) ([]*models.WishlistItem, error) {
	if len(wishlistIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + prefixed("i", itemColumns) + `, ir.user_id
		FROM wishlist_items i
		LEFT JOIN item_reservations ir ON ir.item_id = i.id
		WHERE i.wishlist_id = ANY($1)
		ORDER BY i.created_at ASC, i.id ASC`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(wishlistIDs))
	if err != nil {
		return nil, classify(err, "query wishlist items")
	}
	defer rows.Close()

	var items []*models.WishlistItem
	for rows.Next() {
		item := &models.WishlistItem{}
		var price sql.NullFloat64
		var reservedBy sql.NullInt64
		if err := rows.Scan(append(itemDest(item, &price), &reservedBy)...); err != nil {
			return nil, classify(err, "scan wishlist item")
		}
		item.Price = float64Ptr(price)
		item.ReservedByID = int64Ptr(reservedBy)
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *itemRepository) Update(ctx context.Context, item *models.WishlistItem) (*models.WishlistItem, error) {
	query := `
		UPDATE wishlist_items
		SET name = $2, description = $3, price = $4, url = $5, image_url = $6, updated_at = $7
		WHERE id = $1
		RETURNING updated_at`

	item.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		item.ID,
		item.Name,
		item.Description,
		nullFloat64(item.Price),
		item.URL,
		item.ImageURL,
		item.UpdatedAt,
	).Scan(&item.UpdatedAt)

	if err != nil {
		return nil, classify(err, "update wishlist item")
	}
	return item, nil
}

func (r *itemRepository) SetReserved(ctx context.Context, id int64, reserved bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE wishlist_items SET reserved = $2, updated_at = $3 WHERE id = $1`, id, reserved, time.Now())
	if err != nil {
		return classify(err, "set item reservation flag")
	}
	return expectOne(result)
}

func (r *itemRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM wishlist_items WHERE id = $1`, id)
	if err != nil {
		return classify(err, "delete wishlist item")
	}
	return expectOne(result)
}
