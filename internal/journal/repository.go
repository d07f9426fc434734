package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	ListByUser(ctx context.Context, userID string) ([]Entry, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRepo struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) Create(ctx context.Context, e *Entry) error {
	symptomsJSON, err := json.Marshal(e.Symptoms)
	if err != nil {
		return err
	}
	resultsJSON, err := json.Marshal(e.Results)
	if err != nil {
		return err
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO journal_entries (id, user_id, created_at, symptoms, emergency, results)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.db.ExecContext(ctx, query, e.ID, e.UserID, e.CreatedAt, string(symptomsJSON), e.Emergency, string(resultsJSON))
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Entry, error) {
	query := `SELECT id, user_id, created_at, symptoms, emergency, results FROM journal_entries WHERE id = $1`

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	return e, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]Entry, error) {
	query := `SELECT id, user_id, created_at, symptoms, emergency, results FROM journal_entries WHERE user_id = $1 ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (r *postgresRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var e Entry
	var symptomsJSON, resultsJSON []byte
	if err := row.Scan(&e.ID, &e.UserID, &e.CreatedAt, &symptomsJSON, &e.Emergency, &resultsJSON); err != nil {
		return nil, err
	}
	if len(symptomsJSON) > 0 {
		if err := json.Unmarshal(symptomsJSON, &e.Symptoms); err != nil {
			return nil, fmt.Errorf("failed to unmarshal symptoms: %w", err)
		}
	}
	if len(resultsJSON) > 0 {
		if err := json.Unmarshal(resultsJSON, &e.Results); err != nil {
			return nil, fmt.Errorf("failed to unmarshal results: %w", err)
		}
	}
	return &e, nil
}

type memoryRepo struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]Entry
}

// NewMemoryRepository keeps entries in process memory; used when no
// database is configured.
func NewMemoryRepository() Repository {
	return &memoryRepo{entries: make(map[uuid.UUID]Entry)}
}

func (r *memoryRepo) Create(_ context.Context, e *Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[e.ID]; exists {
		return fmt.Errorf("%w: duplicate id %s", ErrInvalid, e.ID)
	}
	r.entries[e.ID] = cloneEntry(*e)
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	c := cloneEntry(e)
	return &c, nil
}

func (r *memoryRepo) ListByUser(_ context.Context, userID string) ([]Entry, error) {
	r.mu.RLock()
	entries := make([]Entry, 0)
	for _, e := range r.entries {
		if e.UserID == userID {
			entries = append(entries, cloneEntry(e))
		}
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID.String() < entries[j].ID.String()
	})
	return entries, nil
}

func (r *memoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(r.entries, id)
	return nil
}

func cloneEntry(e Entry) Entry {
	e.Symptoms = append([]string{}, e.Symptoms...)
	e.Results = append([]DiseaseProbability{}, e.Results...)
	return e
}
