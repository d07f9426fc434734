package journal

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("journal entry not found")
	ErrInvalid  = errors.New("invalid journal entry")
)

// DiseaseProbability is one line of the result snapshot saved with an entry.
type DiseaseProbability struct {
	Name        string  `json:"name" validate:"required"`
	Probability float64 `json:"probability" validate:"gte=0,lte=1"`
}

// Entry is created when a user saves a result and is never edited afterwards;
// it can only be deleted.
type Entry struct {
	ID        uuid.UUID            `json:"id" db:"id"`
	UserID    string               `json:"user_id" db:"user_id" validate:"required,max=128"`
	CreatedAt time.Time            `json:"created_at" db:"created_at"`
	Symptoms  []string             `json:"symptoms" db:"symptoms" validate:"required,min=1,dive,required"`
	Emergency bool                 `json:"emergency" db:"emergency"`
	Results   []DiseaseProbability `json:"results,omitempty" db:"results" validate:"dive"`
}

// NewEntry assigns an id and timestamp.
func NewEntry(userID string, symptoms []string, emergency bool, results []DiseaseProbability) *Entry {
	return &Entry{
		ID:        uuid.New(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		Symptoms:  append([]string{}, symptoms...),
		Emergency: emergency,
		Results:   append([]DiseaseProbability{}, results...),
	}
}
