package postgres

import (
	"context"
	"time"

	"github.com/Kerhoff/GiftboT/internal/models"
	"github.com/Kerhoff/GiftboT/internal/repository"
)

const profileColumns = `id, user_id, name, is_main_profile, created_at`

type profileRepository struct {
	db querier
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db querier) repository.ProfileRepository {
	return &profileRepository{db: db}
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	p := &models.Profile{}
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.IsMainProfile, &p.CreatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	query := `
		INSERT INTO profiles (user_id, name, is_main_profile, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	profile.CreatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		profile.UserID,
		profile.Name,
		profile.IsMainProfile,
		profile.CreatedAt,
	).Scan(&profile.ID, &profile.CreatedAt)

	if err != nil {
		return nil, classify(err, "create profile")
	}
	return profile, nil
}

func (r *profileRepository) FindByIDAndOwner(ctx context.Context, id, userID int64) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1 AND user_id = $2`

	p, err := scanProfile(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		return nil, classify(err, "find profile by owner")
	}
	return p, nil
}

func (r *profileRepository) GetMainByUser(ctx context.Context, userID int64) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1 AND is_main_profile`

	p, err := scanProfile(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		return nil, classify(err, "get main profile")
	}
	return p, nil
}

func (r *profileRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1 ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, classify(err, "query profiles")
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, classify(err, "scan profile")
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *profileRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return classify(err, "delete profile")
	}
	return expectOne(result)
}
