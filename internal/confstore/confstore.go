// Package confstore holds the per-department activation data: which
// regulations run for a department and kind of project, which criterion
// evaluators apply with what settings, and the content templates attached
// to result codes. Entries are date-scoped; the store enforces non-overlap
// at write time so readers always see at most one active entry.
package confstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MTES-MCT/envergo/internal/geo"
	"github.com/MTES-MCT/envergo/internal/geostore"
)

// Kind distinguishes the two evaluation families.
type Kind string

const (
	KindAmenagement Kind = "amenagement"
	KindHaie        Kind = "haie"
)

// DateRange is a half-open validity interval [Start, End). A zero End
// means open-ended.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) open() bool { return r.End.IsZero() }

// Empty reports whether the range covers no date at all.
func (r DateRange) Empty() bool {
	return !r.open() && !r.End.After(r.Start)
}

// Contains reports whether at falls inside the range.
func (r DateRange) Contains(at time.Time) bool {
	if at.Before(r.Start) {
		return false
	}
	return r.open() || at.Before(r.End)
}

// Overlaps reports whether the two ranges share at least one instant.
func (r DateRange) Overlaps(o DateRange) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	if !r.open() && !r.End.After(o.Start) {
		return false
	}
	if !o.open() && !o.End.After(r.Start) {
		return false
	}
	return true
}

// PlantationRules carries the per-department replantation policy consumed
// by the plantation checks.
type PlantationRules struct {
	// ReplantationCoefficient is the minimum planted/removed length ratio.
	ReplantationCoefficient float64
	// QualityFloor is the minimum share of bocagere or mixte hedges in the
	// planted set, as a fraction in [0, 1].
	QualityFloor float64
	// ProximityRadiusM is the centroid-to-centroid radius of the proximity
	// check. Zero disables the check.
	ProximityRadiusM float64
}

// ConfigEntry activates a set of regulations for one department and kind
// over a validity range.
type ConfigEntry struct {
	Department     string
	Kind           Kind
	Validity       DateRange
	Activated      bool
	Regulations    []string
	FormSchemas    []string
	DemarcheNumber int
	Plantation     PlantationRules
}

// Settings carries evaluator-specific parameters.
type Settings map[string]any

// Float reads a numeric setting, accepting int or float values.
func (s Settings) Float(key string, def float64) float64 {
	switch v := s[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

func (s Settings) String(key, def string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return def
}

func (s Settings) Bool(key string, def bool) bool {
	if v, ok := s[key].(bool); ok {
		return v
	}
	return def
}

// Criterion binds an evaluator implementation to its activation perimeter
// within a regulation.
type Criterion struct {
	ID         int64
	Department string
	Regulation string
	// Evaluator is the stable tag resolved against the evaluator registry.
	Evaluator string
	// ActivationMap identifies the perimeter dataset; nil means the
	// criterion is active everywhere in the department.
	ActivationMap *geostore.Map
	// Activation is the perimeter geometry tested against the project
	// coordinates, with ActivationDistanceM of tolerance.
	Activation          *geo.MultiPolygon
	ActivationDistanceM float64
	// Perimeter names the instance for regulations that evaluate the same
	// evaluator once per perimeter (sage).
	Perimeter string
	Settings  Settings
	Weight    int
	Validity  DateRange
}

func (c Criterion) activationMapID() int64 {
	if c.ActivationMap == nil {
		return 0
	}
	return c.ActivationMap.ID
}

// Store is the in-memory configuration store. Writes happen at load time,
// reads are concurrent.
type Store struct {
	mu        sync.RWMutex
	entries   []ConfigEntry
	criteria  []Criterion
	templates map[string]string
}

func New() *Store {
	return &Store{templates: make(map[string]string)}
}

// AddConfig registers a config entry. Empty validity ranges and ranges
// overlapping an existing entry for the same (department, kind) are
// rejected.
func (s *Store) AddConfig(e ConfigEntry) error {
	if e.Validity.Empty() {
		return fmt.Errorf("confstore: empty validity range for %s/%s", e.Department, e.Kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.entries {
		if other.Department == e.Department && other.Kind == e.Kind && other.Validity.Overlaps(e.Validity) {
			return fmt.Errorf("confstore: overlapping config for %s/%s", e.Department, e.Kind)
		}
	}
	s.entries = append(s.entries, e)
	return nil
}

// AddCriterion registers a criterion. Empty validity ranges and ranges
// overlapping an existing criterion with the same (department, regulation,
// evaluator, activation map, perimeter) are rejected.
func (s *Store) AddCriterion(c Criterion) error {
	if c.Validity.Empty() {
		return fmt.Errorf("confstore: empty validity range for criterion %s/%s", c.Regulation, c.Evaluator)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.criteria {
		if other.Department == c.Department &&
			other.Regulation == c.Regulation &&
			other.Evaluator == c.Evaluator &&
			other.activationMapID() == c.activationMapID() &&
			other.Perimeter == c.Perimeter &&
			other.Validity.Overlaps(c.Validity) {
			return fmt.Errorf("confstore: overlapping criterion %s/%s", c.Regulation, c.Evaluator)
		}
	}
	s.criteria = append(s.criteria, c)
	return nil
}

// SetTemplate registers a content fragment under a key like
// "loi_sur_leau/soumis.html".
func (s *Store) SetTemplate(key, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[key] = content
}

// GetConfig returns the unique entry covering at, or nil when none exists.
func (s *Store) GetConfig(ctx context.Context, department string, kind Kind, at time.Time) (*ConfigEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.entries {
		e := &s.entries[i]
		if e.Department == department && e.Kind == kind && e.Validity.Contains(at) {
			out := *e
			return &out, nil
		}
	}
	return nil, nil
}

// ListCriteria returns the criteria active at the given date for one
// regulation and department, ordered by weight then evaluator tag then
// perimeter.
func (s *Store) ListCriteria(ctx context.Context, regulation, department string, at time.Time) ([]Criterion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Criterion
	for _, c := range s.criteria {
		if c.Regulation == regulation && c.Department == department && c.Validity.Contains(at) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight < out[j].Weight
		}
		if out[i].Evaluator != out[j].Evaluator {
			return out[i].Evaluator < out[j].Evaluator
		}
		return out[i].Perimeter < out[j].Perimeter
	})
	return out, nil
}

// Template returns the content registered under key.
func (s *Store) Template(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.templates[key]
	return content, ok, nil
}
