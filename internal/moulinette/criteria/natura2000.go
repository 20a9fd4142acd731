package criteria

import (
	"context"

	"github.com/MTES-MCT/envergo/internal/confstore"
	"github.com/MTES-MCT/envergo/internal/moulinette"
)

// n2000Wetland is the Natura 2000 wetland check. Same proximity bands as
// the loi sur l'eau rubric, but a much lower surface threshold.
type n2000Wetland struct{ base }

func newN2000Wetland() *n2000Wetland {
	return &n2000Wetland{base{
		slug:     "zone_humide",
		label:    "Natura 2000 > Zone humide",
		required: []string{"created_surface"},
		results: map[string]moulinette.Result{
			"soumis":                    moulinette.ResultSoumis,
			"action_requise_proche":     moulinette.ResultActionRequise,
			"non_soumis_proche":         moulinette.ResultNonSoumis,
			"action_requise_dans_doute": moulinette.ResultActionRequise,
			"non_soumis_dans_doute":     moulinette.ResultNonSoumis,
			"non_soumis":                moulinette.ResultNonSoumis,
			"non_concerne":              moulinette.ResultNonConcerne,
		},
	}}
}

func (e *n2000Wetland) Evaluate(ctx context.Context, cat *moulinette.Catalog, crit confstore.Criterion) (moulinette.Evaluation, error) {
	inside, err := cat.WetlandsWithin(ctx, wetlandInsideM)
	if err != nil {
		return moulinette.Evaluation{}, err
	}
	nearby, err := cat.WetlandsWithin(ctx, wetlandCloseToM)
	if err != nil {
		return moulinette.Evaluation{}, err
	}
	potential, err := cat.PotentialWetlandsAt(ctx)
	if err != nil {
		return moulinette.Evaluation{}, err
	}

	status := "outside"
	switch {
	case len(inside) > 0:
		status = "inside"
	case len(nearby) > 0:
		status = "close_to"
	case len(potential) > 0:
		status = "inside_potential"
	}
	big := cat.ProjectSurface >= crit.Settings.Float("threshold", 100)

	var code string
	switch status {
	case "inside":
		code = pick(big, "soumis", "non_soumis")
	case "close_to":
		code = pick(big, "action_requise_proche", "non_soumis_proche")
	case "inside_potential":
		code = pick(big, "action_requise_dans_doute", "non_soumis_dans_doute")
	default:
		code = "non_concerne"
	}

	return moulinette.Evaluation{
		ResultCode: code,
		Catalog: map[string]any{
			"wetland_status": status,
			"big_project":    big,
		},
	}, nil
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}

// n2000FloodZone is the Natura 2000 flood zone check.
type n2000FloodZone struct{ base }

func newN2000FloodZone() *n2000FloodZone {
	return &n2000FloodZone{base{
		slug:     "zone_inondable",
		label:    "Natura 2000 > Zone inondable",
		required: []string{"created_surface"},
		results: map[string]moulinette.Result{
			"soumis":       moulinette.ResultSoumis,
			"non_soumis":   moulinette.ResultNonSoumis,
			"non_concerne": moulinette.ResultNonConcerne,
		},
	}}
}

func (e *n2000FloodZone) Evaluate(ctx context.Context, cat *moulinette.Catalog, crit confstore.Criterion) (moulinette.Evaluation, error) {
	zones, err := cat.FloodZonesWithin(ctx, floodInsideM)
	if err != nil {
		return moulinette.Evaluation{}, err
	}

	var code string
	switch {
	case len(zones) == 0:
		code = "non_concerne"
	case cat.ProjectSurface >= crit.Settings.Float("threshold", 200):
		code = "soumis"
	default:
		code = "non_soumis"
	}
	return moulinette.Evaluation{
		ResultCode: code,
		Catalog:    map[string]any{"flood_zones_within_12m": len(zones) > 0},
	}, nil
}

// n2000IOTA cascades from the loi sur l'eau outcome: a project subject to
// the water law must also file a Natura 2000 impact assessment.
type n2000IOTA struct{ base }

func newN2000IOTA() *n2000IOTA {
	return &n2000IOTA{base{
		slug:  "iota",
		label: "Natura 2000 > IOTA",
		results: map[string]moulinette.Result{
			"soumis":          moulinette.ResultSoumis,
			"non_soumis":      moulinette.ResultNonSoumis,
			"iota_a_verifier": moulinette.ResultAVerifier,
			"non_disponible":  moulinette.ResultNonDisponible,
		},
	}}
}

func (e *n2000IOTA) Evaluate(ctx context.Context, cat *moulinette.Catalog, crit confstore.Criterion) (moulinette.Evaluation, error) {
	lse, ok := cat.RegulationResults["loi_sur_leau"]
	var code string
	switch {
	case !ok:
		code = "non_disponible"
	case lse == moulinette.ResultSoumis:
		code = "soumis"
	case lse == moulinette.ResultNonSoumis:
		code = "non_soumis"
	default:
		code = "iota_a_verifier"
	}
	return moulinette.Evaluation{
		ResultCode: code,
		Catalog:    map[string]any{"loi_sur_leau_result": string(lse)},
	}, nil
}

// n2000Lotissement checks subdivision projects against the activation
// perimeter of the department's Natura 2000 decree.
type n2000Lotissement struct{ base }

func newN2000Lotissement() *n2000Lotissement {
	return &n2000Lotissement{base{
		slug:     "lotissement",
		label:    "Natura 2000 > Lotissement",
		required: []string{"is_lotissement"},
		results: map[string]moulinette.Result{
			"soumis_dedans":              moulinette.ResultSoumis,
			"soumis_proximite_immediate": moulinette.ResultSoumis,
			"non_soumis":                 moulinette.ResultNonSoumis,
		},
	}}
}

func (e *n2000Lotissement) Evaluate(ctx context.Context, cat *moulinette.Catalog, crit confstore.Criterion) (moulinette.Evaluation, error) {
	isLotissement, _ := cat.Params.String("is_lotissement")
	if isLotissement != "oui" {
		return moulinette.Evaluation{ResultCode: "non_soumis"}, nil
	}

	// the criterion activates on a perimeter larger than the decree zone
	// itself; inside the zone proper the stricter code applies
	position := "proximite_immediate"
	if crit.Activation != nil && cat.HasCoords && crit.Activation.Contains(cat.Coords) {
		position = "dedans"
	}
	return moulinette.Evaluation{
		ResultCode: "soumis_" + position,
		Catalog:    map[string]any{"lotissement_position": position},
	}, nil
}

// autorisationUrba keys the Natura 2000 assessment on the urban planning
// permit type. Departments can override the default mapping per permit
// type through the criterion settings.
type autorisationUrba struct {
	base
	excludeLotissement bool
}

func newAutorisationUrba(excludeLotissement bool) *autorisationUrba {
	slug := "autorisation_urba"
	label := "Natura 2000 > Autorisation d'urbanisme"
	if excludeLotissement {
		slug = "autorisation_urba_exc_lotissement"
		label = "Natura 2000 > Autorisation d'urbanisme (hors lotissements)"
	}
	return &autorisationUrba{
		base: base{
			slug:     slug,
			label:    label,
			required: []string{"autorisation_urba"},
			results: map[string]moulinette.Result{
				"soumis":     moulinette.ResultSoumis,
				"non_soumis": moulinette.ResultNonSoumis,
				"a_verifier": moulinette.ResultAVerifier,
			},
		},
		excludeLotissement: excludeLotissement,
	}
}

func (e *autorisationUrba) Evaluate(ctx context.Context, cat *moulinette.Catalog, crit confstore.Criterion) (moulinette.Evaluation, error) {
	permit, _ := cat.Params.String("autorisation_urba")

	var code string
	switch permit {
	case "pa", "pc", "amenagement_dp", "construction_dp":
		code = "soumis"
	case "none":
		code = "non_soumis"
	default:
		code = "a_verifier"
	}

	if e.excludeLotissement && permit == "pa" {
		if v, _ := cat.Params.String("is_lotissement"); v == "oui" {
			code = "non_soumis"
		}
	}

	// departmental decrees can narrow or widen the default mapping
	code = crit.Settings.String("result_"+permit, code)

	return moulinette.Evaluation{
		ResultCode: code,
		Catalog:    map[string]any{"autorisation_urba": permit},
	}, nil
}
