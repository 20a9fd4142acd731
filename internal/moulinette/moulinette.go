package moulinette

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MTES-MCT/envergo/internal/confstore"
	"github.com/MTES-MCT/envergo/internal/geo"
	"github.com/MTES-MCT/envergo/internal/geostore"
	"github.com/MTES-MCT/envergo/internal/hedges"
	"github.com/MTES-MCT/envergo/internal/observability"
)

// ConfigSource is the configuration surface the engine reads from.
type ConfigSource interface {
	GetConfig(ctx context.Context, department string, kind confstore.Kind, at time.Time) (*confstore.ConfigEntry, error)
	ListCriteria(ctx context.Context, regulation, department string, at time.Time) ([]confstore.Criterion, error)
	Template(ctx context.Context, key string) (string, bool, error)
}

var _ ConfigSource = (*confstore.Store)(nil)

// Moulinette runs evaluations against the read-only stores.
type Moulinette struct {
	store    geostore.Store
	conf     ConfigSource
	hedgeSrc hedges.Source
	registry *Registry
	log      zerolog.Logger
}

func New(store geostore.Store, conf ConfigSource, hedgeSrc hedges.Source, registry *Registry, log zerolog.Logger) *Moulinette {
	return &Moulinette{
		store:    store,
		conf:     conf,
		hedgeSrc: hedgeSrc,
		registry: registry,
		log:      log.With().Str("component", "moulinette").Logger(),
	}
}

// Evaluate runs the full evaluation for one request. Only malformed input
// returns an error (*InvalidInputError); every degraded condition shows up
// as a non_disponible somewhere in the result instead.
func (m *Moulinette) Evaluate(ctx context.Context, params Params, kind confstore.Kind, at time.Time) (*MoulinetteResult, error) {
	start := time.Now()
	res, err := m.evaluate(ctx, params, kind, at)
	if err == nil && res != nil {
		observability.ObserveEvaluation(string(kind), string(res.Result), time.Since(start))
	}
	return res, err
}

func (m *Moulinette) evaluate(ctx context.Context, params Params, kind confstore.Kind, at time.Time) (*MoulinetteResult, error) {
	cat := NewCatalog(m.store, params)

	switch kind {
	case confstore.KindHaie:
		inScope, err := m.validateHaie(ctx, params, cat)
		if err != nil {
			return nil, err
		}
		if !inScope {
			return &MoulinetteResult{Result: ResultNonConcerne, OutOfScope: true}, nil
		}
	default:
		if err := m.validateAmenagement(params, cat); err != nil {
			return nil, err
		}
	}

	if err := m.resolveDepartment(ctx, params, cat); err != nil {
		return nil, err
	}
	if cat.Department == "" {
		return &MoulinetteResult{
			Result:        ResultNonDisponible,
			MissingFields: []string{"department"},
			Catalog:       cat.Shared(),
		}, nil
	}

	entry, err := m.conf.GetConfig(ctx, cat.Department, kind, at)
	if err != nil {
		m.log.Warn().Err(err).Str("department", cat.Department).Msg("config lookup failed")
		entry = nil
	}
	if entry == nil || !entry.Activated {
		result := ResultNonDisponible
		if entry != nil {
			result = ResultNonActive
		}
		var regs []RegulationResult
		for _, slug := range kindRegulations[string(kind)] {
			regs = append(regs, RegulationResult{Slug: slug, Result: result})
		}
		return &MoulinetteResult{Result: result, Regulations: regs, Catalog: cat.Shared()}, nil
	}

	missing := make(map[string]struct{})
	var regs []RegulationResult
	for _, regulation := range entry.Regulations {
		reg := m.runRegulation(ctx, cat, regulation, at, missing)
		cat.RegulationResults[regulation] = reg.Result
		regs = append(regs, reg)
	}

	regResults := make([]Result, 0, len(regs))
	for _, r := range regs {
		regResults = append(regResults, r.Result)
	}
	overall := MaxResult(regResults...)
	for _, r := range regResults {
		if r == ResultInterdit {
			overall = ResultInterdit
		}
	}

	return &MoulinetteResult{
		Result:        overall,
		Regulations:   regs,
		Catalog:       mergeCatalogs(cat, regs),
		MissingFields: sortedKeys(missing),
	}, nil
}

func (m *Moulinette) runRegulation(ctx context.Context, cat *Catalog, regulation string, at time.Time, missing map[string]struct{}) RegulationResult {
	crits, err := m.conf.ListCriteria(ctx, regulation, cat.Department, at)
	if err != nil {
		m.log.Warn().Err(err).Str("regulation", regulation).Msg("criteria lookup failed")
		return RegulationResult{Slug: regulation, Result: ResultNonDisponible}
	}

	results := make([]CriterionResult, 0, len(crits))
	for _, crit := range crits {
		results = append(results, m.runCriterion(ctx, cat, crit, missing))
	}

	return RegulationResult{
		Slug:     regulation,
		Result:   aggregate(ruleFor(regulation), results),
		Criteria: results,
	}
}

func (m *Moulinette) runCriterion(ctx context.Context, cat *Catalog, crit confstore.Criterion, missing map[string]struct{}) CriterionResult {
	out := CriterionResult{
		Slug:      crit.Evaluator,
		Evaluator: crit.Evaluator,
		Perimeter: crit.Perimeter,
	}

	ev, ok := m.registry.Lookup(crit.Evaluator)
	if !ok {
		err := &ConfigurationError{Evaluator: crit.Evaluator, Reason: "no registered implementation"}
		m.log.Warn().Err(err).Msg("criterion skipped")
		observability.IncCriterionFailure(crit.Regulation, crit.Evaluator, "unregistered")
		out.ResultCode = string(ResultNonDisponible)
		out.Result = ResultNonDisponible
		out.Catalog = map[string]any{"error": err.Error()}
		return out
	}
	out.Slug = ev.Slug()

	// outside the activation perimeter, the criterion does not apply
	if crit.Activation != nil && cat.HasCoords &&
		!crit.Activation.WithinDistanceM(cat.Coords, crit.ActivationDistanceM) {
		out.ResultCode = string(ResultNonConcerne)
		out.Result = ResultNonConcerne
		return out
	}

	var absent []string
	for _, f := range ev.RequiredFields() {
		if !cat.Params.Has(f) {
			absent = append(absent, f)
		}
	}
	if len(absent) > 0 {
		for _, f := range absent {
			missing[f] = struct{}{}
		}
		out.ResultCode = string(ResultNonDisponible)
		out.Result = ResultNonDisponible
		out.Catalog = map[string]any{"missing_fields": absent}
		return out
	}

	evStart := time.Now()
	eval, err := m.safeEvaluate(ctx, ev, cat, crit)
	observability.ObserveCriterion(crit.Regulation, ev.Slug(), time.Since(evStart))
	if err != nil {
		m.log.Warn().Err(err).Str("criterion", ev.Slug()).Msg("criterion failed, degrading")
		observability.IncCriterionFailure(crit.Regulation, ev.Slug(), "evaluation_error")
		out.ResultCode = string(ResultNonDisponible)
		out.Result = ResultNonDisponible
		out.Catalog = map[string]any{"error": err.Error()}
		return out
	}

	out.ResultCode = eval.ResultCode
	out.Result = ev.ResultFor(eval.ResultCode)
	out.Catalog = eval.Catalog
	out.Map = eval.Map
	if tpl, found, terr := m.conf.Template(ctx, crit.Regulation+"/"+eval.ResultCode+".html"); terr == nil && found {
		out.Template = tpl
	}
	return out
}

// safeEvaluate shields the run from a panicking evaluator.
func (m *Moulinette) safeEvaluate(ctx context.Context, ev Evaluator, cat *Catalog, crit confstore.Criterion) (eval Evaluation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("evaluator %s panicked: %v", ev.Slug(), r)
		}
	}()
	return ev.Evaluate(ctx, cat, crit)
}

func (m *Moulinette) validateAmenagement(params Params, cat *Catalog) error {
	inv := &InvalidInputError{}

	lng, lngOK := params.Float("lng")
	lat, latOK := params.Float("lat")
	if !lngOK {
		inv.add("lng", "this field is required")
	} else if lng < -180 || lng > 180 {
		inv.add("lng", "longitude out of range")
	}
	if !latOK {
		inv.add("lat", "this field is required")
	} else if lat < -90 || lat > 90 {
		inv.add("lat", "latitude out of range")
	}

	created, createdOK := params.Float("created_surface")
	if !createdOK {
		inv.add("created_surface", "this field is required")
	} else if created < 0 {
		inv.add("created_surface", "surface cannot be negative")
	}

	existing := 0.0
	if params.Has("existing_surface") {
		v, ok := params.Float("existing_surface")
		if !ok || v < 0 {
			inv.add("existing_surface", "surface cannot be negative")
		} else {
			existing = v
		}
	}
	if params.Has("final_surface") {
		final, ok := params.Float("final_surface")
		switch {
		case !ok || final < 0:
			inv.add("final_surface", "surface cannot be negative")
		case createdOK && final < created:
			inv.add("final_surface", "the total surface must be greater than the created surface")
		case createdOK && !params.Has("existing_surface"):
			existing = final - created
		}
	}

	if !inv.empty() {
		return inv
	}

	cat.HasCoords = true
	cat.Coords = geo.Point{Lng: lng, Lat: lat}
	cat.Lambert = geo.ToLambert93(cat.Coords)
	cat.CreatedSurface = created
	cat.ExistingSurface = existing
	cat.ProjectSurface = created + existing
	return nil
}

// validateHaie runs the triage gate, then the hedge project form rules.
// It reports whether the project is in scope at all.
func (m *Moulinette) validateHaie(ctx context.Context, params Params, cat *Catalog) (bool, error) {
	inv := &InvalidInputError{}

	department, _ := params.String("department")
	element, _ := params.String("element")
	travaux, _ := params.String("travaux")
	if department == "" {
		inv.add("department", "this field is required")
	}
	if element == "" {
		inv.add("element", "this field is required")
	}
	if travaux == "" {
		inv.add("travaux", "this field is required")
	}
	if !inv.empty() {
		return false, inv
	}

	// only the destruction of hedges is in scope
	if element != "haie" || travaux != "destruction" {
		return false, nil
	}

	motif, _ := params.String("motif")
	reimplantation, _ := params.String("reimplantation")
	localisationPAC, _ := params.String("localisation_pac")
	if motif == "" {
		inv.add("motif", "this field is required")
	}
	if reimplantation == "" {
		inv.add("reimplantation", "this field is required")
	}
	if localisationPAC == "" {
		inv.add("localisation_pac", "this field is required")
	}
	if !params.Has("haies") {
		inv.add("haies", "no hedge set provided")
	}

	if motif == "chemin_acces" && reimplantation == "remplacement" {
		inv.add("reimplantation", "replanting in place is inconsistent with creating an access path")
	}
	if motif == "amelioration_ecologique" && reimplantation == "non" {
		inv.add("reimplantation", "no replanting is inconsistent with an ecological improvement")
	}

	if params.Has("haies") {
		m.resolveHedges(ctx, params, cat, inv)
	}
	if cat.Hedges != nil {
		removed := cat.Hedges.ToRemove()
		if cat.Hedges.LengthToRemove() == 0 {
			inv.add("haies", "at least one hedge to remove is required")
		}
		anyOnPAC := false
		for _, h := range removed {
			if h.Is(hedges.AttrOnPAC) {
				anyOnPAC = true
			}
		}
		if localisationPAC == "oui" && !anyOnPAC {
			inv.add("localisation_pac", "no declared hedge sits on a PAC parcel")
		}
		if localisationPAC == "non" && anyOnPAC {
			inv.add("localisation_pac", "a declared hedge sits on a PAC parcel")
		}
	}

	if !inv.empty() {
		return false, inv
	}
	return true, nil
}

// resolveHedges accepts an embedded hedge set or a UUID referencing the
// hedge store.
func (m *Moulinette) resolveHedges(ctx context.Context, params Params, cat *Catalog, inv *InvalidInputError) {
	switch v := params["haies"].(type) {
	case *hedges.Data:
		cat.Hedges = v
		return
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			inv.add("haies", "malformed hedge set id")
			return
		}
		if m.hedgeSrc == nil {
			inv.add("haies", "no hedge store configured")
			return
		}
		data, err := m.hedgeSrc.Get(ctx, id)
		if errors.Is(err, hedges.ErrNotFound) {
			inv.add("haies", "unknown hedge set")
			return
		}
		if err != nil {
			// transient store failure: hedge criteria degrade instead of
			// failing the whole call
			cat.hedgesErr = fmt.Errorf("hedge store: %w: %w", geostore.ErrUnavailable, err)
			return
		}
		cat.Hedges = data
	default:
		inv.add("haies", "unsupported hedge set reference")
	}
}

func (m *Moulinette) resolveDepartment(ctx context.Context, params Params, cat *Catalog) error {
	if dept, ok := params.String("department"); ok && dept != "" {
		cat.Department = dept
		return nil
	}
	if !cat.HasCoords {
		return nil
	}
	code, err := m.store.CommuneOf(ctx, cat.Coords)
	if err != nil {
		m.log.Warn().Err(err).Msg("commune lookup failed")
		return nil
	}
	cat.Department = departmentFromInsee(code)
	return nil
}

// departmentFromInsee derives the department code from an INSEE commune
// code, keeping the Corsican 2A/2B prefixes.
func departmentFromInsee(code string) string {
	if len(code) < 2 {
		return ""
	}
	if len(code) >= 3 && (code[:2] == "97" || code[:2] == "98") {
		return code[:3]
	}
	return code[:2]
}

func mergeCatalogs(cat *Catalog, regs []RegulationResult) map[string]any {
	merged := cat.Shared()
	for _, reg := range regs {
		for _, c := range reg.Criteria {
			prefix := reg.Slug + "." + c.Slug
			if c.Perimeter != "" {
				prefix += ":" + c.Perimeter
			}
			for k, v := range c.Catalog {
				merged[prefix+"."+k] = v
			}
		}
	}
	return merged
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
