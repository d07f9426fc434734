// Package knowledge holds the read-only catalog of disease rules.
package knowledge

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"symptom-checker/internal/textnorm"
)

var (
	ErrInvalidRule = errors.New("invalid disease rule")
	ErrNotFound    = errors.New("disease rule not found")
)

//go:embed rules.yaml
var defaultRules []byte

type ruleRecord struct {
	ID              string   `yaml:"id" validate:"required"`
	Title           string   `yaml:"title" validate:"required"`
	Description     string   `yaml:"description"`
	Department      string   `yaml:"department" validate:"required"`
	Urgency         Urgency  `yaml:"urgency" validate:"required"`
	MustHave        []string `yaml:"must_have" validate:"dive,required"`
	Related         []string `yaml:"related" validate:"dive,required"`
	Recommendations []string `yaml:"recommendations" validate:"dive,required"`
}

// Catalog is built once and never mutated, so concurrent reads need no locking.
type Catalog struct {
	rules      []DiseaseRule
	byID       map[string]int
	duplicates []string
}

// Default parses the rule table compiled into the binary.
func Default() (*Catalog, error) {
	return Load(defaultRules)
}

// Load parses a YAML list of rules. Duplicate ids are kept in catalog order;
// Get resolves to the first occurrence and Duplicates reports the rest.
func Load(data []byte) (*Catalog, error) {
	var records []ruleRecord
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	validate := validator.New()
	rules := make([]DiseaseRule, 0, len(records))
	for i, rec := range records {
		if err := validate.Struct(rec); err != nil {
			return nil, fmt.Errorf("%w: entry %d (%q): %v", ErrInvalidRule, i, rec.ID, err)
		}
		rules = append(rules, DiseaseRule{
			ID:               rec.ID,
			Title:            rec.Title,
			Description:      rec.Description,
			Department:       rec.Department,
			Urgency:          rec.Urgency,
			RelatedKeywords:  textnorm.NewSet(rec.Related...),
			MustHaveKeywords: textnorm.NewSet(rec.MustHave...),
			Recommendations:  rec.Recommendations,
		})
	}
	return New(rules), nil
}

// New builds a catalog from already constructed rules.
func New(rules []DiseaseRule) *Catalog {
	c := &Catalog{
		rules: make([]DiseaseRule, len(rules)),
		byID:  make(map[string]int, len(rules)),
	}
	copy(c.rules, rules)

	dup := make(map[string]bool)
	for i, r := range c.rules {
		if _, exists := c.byID[r.ID]; exists {
			dup[r.ID] = true
			continue
		}
		c.byID[r.ID] = i
	}
	for id := range dup {
		c.duplicates = append(c.duplicates, id)
	}
	sort.Strings(c.duplicates)
	return c
}

// Rules returns the rules in catalog order. Callers must treat the keyword
// sets and recommendation slices as read-only.
func (c *Catalog) Rules() []DiseaseRule {
	out := make([]DiseaseRule, len(c.rules))
	copy(out, c.rules)
	return out
}

func (c *Catalog) Len() int { return len(c.rules) }

// Get looks a rule up by id.
func (c *Catalog) Get(id string) (DiseaseRule, error) {
	i, ok := c.byID[id]
	if !ok {
		return DiseaseRule{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c.rules[i], nil
}

// Duplicates lists ids that appear more than once, sorted.
func (c *Catalog) Duplicates() []string {
	out := make([]string, len(c.duplicates))
	copy(out, c.duplicates)
	return out
}

// WithoutMustHave lists ids of rules that can never match because they
// declare no must-have keyword.
func (c *Catalog) WithoutMustHave() []string {
	var ids []string
	for _, r := range c.rules {
		if r.MustHaveKeywords.Len() == 0 {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
