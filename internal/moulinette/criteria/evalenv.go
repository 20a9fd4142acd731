package criteria

import (
	"context"
	"fmt"

	"github.com/MTES-MCT/envergo/internal/confstore"
	"github.com/MTES-MCT/envergo/internal/moulinette"
)

// The évaluation environnementale rubrics only know three outcomes: a
// systematic assessment, a case-by-case review, or nothing. The enum keeps
// the scale: systematic lands on soumis, case-by-case on action_requise.
var evalEnvResults = map[string]moulinette.Result{
	"systematique": moulinette.ResultSoumis,
	"cas_par_cas":  moulinette.ResultActionRequise,
	"non_soumis":   moulinette.ResultNonSoumis,
	"non_concerne": moulinette.ResultNonConcerne,
}

func evalEnvResultSet(codes ...string) map[string]moulinette.Result {
	out := make(map[string]moulinette.Result, len(codes))
	for _, c := range codes {
		out[c] = evalEnvResults[c]
	}
	return out
}

// empriseEvalEnv is rubric 39 a): building footprint thresholds, with the
// urban zoning of the parcel deciding the 40 000 m² outcome.
type empriseEvalEnv struct{ base }

func newEmprise() *empriseEvalEnv {
	return &empriseEvalEnv{base{
		slug:     "emprise",
		label:    "Éval env > Emprise",
		required: []string{"emprise", "zone_u", "created_surface"},
		results:  evalEnvResultSet("systematique", "cas_par_cas", "non_soumis"),
	}}
}

func (e *empriseEvalEnv) Evaluate(ctx context.Context, cat *moulinette.Catalog, crit confstore.Criterion) (moulinette.Evaluation, error) {
	emprise, _ := cat.Params.Float("emprise")
	zoneU, _ := cat.Params.String("zone_u")

	// both the created footprint and the total surface after works must
	// clear a threshold for it to count
	bucket := "0"
	switch {
	case emprise >= 40000 && cat.ProjectSurface >= 40000:
		bucket = "40000"
	case emprise >= 10000 && cat.ProjectSurface >= 10000:
		bucket = "10000"
	}

	var code string
	switch {
	case bucket == "40000" && zoneU != "oui":
		code = "systematique"
	case bucket == "40000" || bucket == "10000":
		code = "cas_par_cas"
	default:
		code = "non_soumis"
	}

	return moulinette.Evaluation{
		ResultCode: code,
		Catalog:    map[string]any{"emprise_bucket": bucket, "zone_u": zoneU},
	}, nil
}

// surfacePlancher is rubric 39 a) on floor surface.
type surfacePlancher struct{ base }

func newSurfacePlancher() *surfacePlancher {
	return &surfacePlancher{base{
		slug:     "surface_plancher",
		label:    "Éval env > Surface plancher",
		required: []string{"surface_plancher_sup_thld"},
		results:  evalEnvResultSet("cas_par_cas", "non_soumis"),
	}}
}

func (e *surfacePlancher) Evaluate(ctx context.Context, cat *moulinette.Catalog, crit confstore.Criterion) (moulinette.Evaluation, error) {
	v, _ := cat.Params.String("surface_plancher_sup_thld")
	return moulinette.Evaluation{ResultCode: pick(v == "oui", "cas_par_cas", "non_soumis")}, nil
}

// terrainAssiette is rubric 39 b): land area of development operations.
type terrainAssiette struct{ base }

func newTerrainAssiette() *terrainAssiette {
	return &terrainAssiette{base{
		slug:     "terrain_assiette",
		label:    "Éval env > Terrain d'assiette",
		required: []string{"operation_amenagement", "terrain_assiette"},
		results:  evalEnvResultSet("systematique", "cas_par_cas", "non_soumis", "non_concerne"),
	}}
}

func (e *terrainAssiette) Evaluate(ctx context.Context, cat *moulinette.Catalog, crit confstore.Criterion) (moulinette.Evaluation, error) {
	op, _ := cat.Params.String("operation_amenagement")
	if op != "oui" {
		return moulinette.Evaluation{ResultCode: "non_concerne"}, nil
	}

	terrain, _ := cat.Params.Float("terrain_assiette")
	var code string
	switch {
	case terrain >= 100000:
		code = "systematique"
	case terrain >= 50000:
		code = "cas_par_cas"
	default:
		code = "non_soumis"
	}
	return moulinette.Evaluation{
		ResultCode: code,
		Catalog:    map[string]any{"terrain_assiette": terrain},
	}, nil
}

// choiceRubric covers the rubrics that are a straight single-choice
// lookup.
type choiceRubric struct {
	base
	field string
	codes map[string]string
}

func (e *choiceRubric) Evaluate(ctx context.Context, cat *moulinette.Catalog, crit confstore.Criterion) (moulinette.Evaluation, error) {
	v, _ := cat.Params.String(e.field)
	code, ok := e.codes[v]
	if !ok {
		return moulinette.Evaluation{}, fmt.Errorf("field %s: unknown choice %q", e.field, v)
	}
	return moulinette.Evaluation{ResultCode: code, Catalog: map[string]any{e.field: v}}, nil
}

func newRoutePublique() *choiceRubric {
	return &choiceRubric{
		base: base{
			slug:     "route_publique",
			label:    "Éval env > Route publique",
			required: []string{"route_publique"},
			results:  evalEnvResultSet("systematique", "cas_par_cas", "non_soumis"),
		},
		field: "route_publique",
		codes: map[string]string{
			"aucune":   "non_soumis",
			"lt_10km":  "cas_par_cas",
			"gte_10km": "systematique",
		},
	}
}

func newVoiePrivee() *choiceRubric {
	return &choiceRubric{
		base: base{
			slug:     "voie_privee",
			label:    "Éval env > Voie privée",
			required: []string{"voie_privee"},
			results:  evalEnvResultSet("cas_par_cas", "non_soumis"),
		},
		field: "voie_privee",
		codes: map[string]string{
			"lt_3km":  "non_soumis",
			"gte_3km": "cas_par_cas",
		},
	}
}

func newPisteCyclable() *choiceRubric {
	return &choiceRubric{
		base: base{
			slug:     "piste_cyclable",
			label:    "Éval env > Piste cyclable",
			required: []string{"piste_cyclable"},
			results:  evalEnvResultSet("cas_par_cas", "non_soumis"),
		},
		field: "piste_cyclable",
		codes: map[string]string{
			"lt_10km":  "non_soumis",
			"gte_10km": "cas_par_cas",
		},
	}
}

func newCamping() *choiceRubric {
	return &choiceRubric{
		base: base{
			slug:     "camping",
			label:    "Éval env > Camping",
			required: []string{"emplacements_camping"},
			results:  evalEnvResultSet("systematique", "cas_par_cas", "non_soumis"),
		},
		field: "emplacements_camping",
		codes: map[string]string{
			"0_6":     "non_soumis",
			"7_199":   "cas_par_cas",
			"gte_200": "systematique",
		},
	}
}

// aireDeStationnement is rubric 41: open parking areas of fifty units or
// more, unless strictly private.
type aireDeStationnement struct{ base }

func newAireDeStationnement() *aireDeStationnement {
	return &aireDeStationnement{base{
		slug:     "aire_de_stationnement",
		label:    "Éval env > Aire de stationnement",
		required: []string{"nombre_emplacements", "usage_stationnement"},
		results:  evalEnvResultSet("cas_par_cas", "non_soumis"),
	}}
}

func (e *aireDeStationnement) Evaluate(ctx context.Context, cat *moulinette.Catalog, crit confstore.Criterion) (moulinette.Evaluation, error) {
	count, _ := cat.Params.String("nombre_emplacements")
	usage, _ := cat.Params.String("usage_stationnement")

	code := "non_soumis"
	if count == "gte_50" && (usage == "public" || usage == "mixte") {
		code = "cas_par_cas"
	}
	return moulinette.Evaluation{
		ResultCode: code,
		Catalog:    map[string]any{"nombre_emplacements": count, "usage_stationnement": usage},
	}, nil
}
