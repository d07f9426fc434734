package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

type Repository interface {
	Get(ctx context.Context, userID string) (*UserProfile, error)
	Save(ctx context.Context, p *UserProfile) error
}

type postgresRepo struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) Get(ctx context.Context, userID string) (*UserProfile, error) {
	query := `SELECT user_id, age_group, sex, chronic_diseases, allergies, updated_at FROM user_profiles WHERE user_id = $1`

	p, err := scanProfile(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, userID)
		}
		return nil, err
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*UserProfile, error) {
	var p UserProfile
	var chronicJSON, allergyJSON []byte
	if err := row.Scan(&p.UserID, &p.AgeGroup, &p.Sex, &chronicJSON, &allergyJSON, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if len(chronicJSON) > 0 {
		if err := json.Unmarshal(chronicJSON, &p.ChronicDiseases); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chronic diseases: %w", err)
		}
	}
	if len(allergyJSON) > 0 {
		if err := json.Unmarshal(allergyJSON, &p.Allergies); err != nil {
			return nil, fmt.Errorf("failed to unmarshal allergies: %w", err)
		}
	}
	return &p, nil
}

func (r *postgresRepo) Save(ctx context.Context, p *UserProfile) error {
	chronicJSON, err := json.Marshal(nonNil(p.ChronicDiseases))
	if err != nil {
		return err
	}
	allergyJSON, err := json.Marshal(nonNil(p.Allergies))
	if err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO user_profiles (user_id, age_group, sex, chronic_diseases, allergies, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			age_group = $2,
			sex = $3,
			chronic_diseases = $4,
			allergies = $5,
			updated_at = $6
	`
	_, err = r.db.ExecContext(ctx, query, p.UserID, p.AgeGroup, p.Sex, string(chronicJSON), string(allergyJSON), p.UpdatedAt)
	return err
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type memoryRepo struct {
	mu       sync.RWMutex
	profiles map[string]UserProfile
}

// NewMemoryRepository keeps profiles in process memory.
func NewMemoryRepository() Repository {
	return &memoryRepo{profiles: make(map[string]UserProfile)}
}

func (r *memoryRepo) Get(_ context.Context, userID string) (*UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, userID)
	}
	return clone(p), nil
}

func (r *memoryRepo) Save(_ context.Context, p *UserProfile) error {
	p.UpdatedAt = time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.UserID] = *clone(*p)
	return nil
}

func clone(p UserProfile) *UserProfile {
	p.ChronicDiseases = append([]ChronicDisease{}, p.ChronicDiseases...)
	p.Allergies = append([]Allergy{}, p.Allergies...)
	return &p
}
