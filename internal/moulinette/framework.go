package moulinette

import (
	"context"
	"fmt"
	"sort"

	"github.com/MTES-MCT/envergo/internal/confstore"
	"github.com/MTES-MCT/envergo/internal/geo"
)

// Evaluation is one evaluator's raw outcome: a code from its closed set,
// the facts it computed, and an optional display map.
type Evaluation struct {
	ResultCode string
	Catalog    map[string]any
	Map        *CriterionMap
}

// CriterionMap describes the polygons a criterion wants displayed with its
// result.
type CriterionMap struct {
	Caption  string
	Polygons []MapPolygon
	Sources  []string
}

type MapPolygon struct {
	Geometry *geo.MultiPolygon
	Color    string
	Label    string
}

// Evaluator is one criterion implementation. Evaluators are stateless;
// everything request-scoped comes through the catalog and the settings.
type Evaluator interface {
	// Slug identifies the criterion inside its regulation.
	Slug() string
	// Label is the human name surfaced for admin selection.
	Label() string
	// RequiredFields lists the request parameters the evaluator needs.
	RequiredFields() []string
	// ResultCodes is the closed set of codes Evaluate may return.
	ResultCodes() []string
	// ResultFor maps every result code to its enum value.
	ResultFor(code string) Result
	// Evaluate receives the criterion binding for its settings, perimeter
	// name and activation geometry.
	Evaluate(ctx context.Context, cat *Catalog, crit confstore.Criterion) (Evaluation, error)
}

// Registry resolves the evaluator tags persisted in the configuration to
// their implementations.
type Registry struct {
	m map[string]Evaluator
}

func NewRegistry() *Registry {
	return &Registry{m: make(map[string]Evaluator)}
}

// Register binds a tag. Double registration is a programming error.
func (r *Registry) Register(tag string, e Evaluator) {
	if _, dup := r.m[tag]; dup {
		panic(fmt.Sprintf("moulinette: evaluator tag %q registered twice", tag))
	}
	r.m[tag] = e
}

func (r *Registry) Lookup(tag string) (Evaluator, bool) {
	e, ok := r.m[tag]
	return e, ok
}

// Tags returns the registered tags, sorted.
func (r *Registry) Tags() []string {
	out := make([]string, 0, len(r.m))
	for tag := range r.m {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// CheckCriteria verifies at load time that every configured criterion
// references a registered evaluator.
func (r *Registry) CheckCriteria(crits []confstore.Criterion) error {
	for _, c := range crits {
		if _, ok := r.m[c.Evaluator]; !ok {
			return &ConfigurationError{Evaluator: c.Evaluator, Reason: "no registered implementation"}
		}
	}
	return nil
}

// CriterionResult is one evaluated criterion, enum value resolved and
// template attached.
type CriterionResult struct {
	Slug       string         `json:"slug"`
	Evaluator  string         `json:"evaluator"`
	Perimeter  string         `json:"perimeter,omitempty"`
	ResultCode string         `json:"result_code"`
	Result     Result         `json:"result"`
	Catalog    map[string]any `json:"catalog,omitempty"`
	Map        *CriterionMap  `json:"map,omitempty"`
	Template   string         `json:"template,omitempty"`
}

// RegulationResult aggregates one regulation's criteria.
type RegulationResult struct {
	Slug     string            `json:"slug"`
	Result   Result            `json:"result"`
	Criteria []CriterionResult `json:"criteria"`
}

// MoulinetteResult is the whole evaluation outcome.
type MoulinetteResult struct {
	Result        Result             `json:"result"`
	Regulations   []RegulationResult `json:"regulations"`
	Catalog       map[string]any     `json:"catalog,omitempty"`
	MissingFields []string           `json:"missing_fields,omitempty"`
	// OutOfScope is set when the triage form rules the project out before
	// any criterion runs.
	OutOfScope bool `json:"out_of_scope,omitempty"`
}
