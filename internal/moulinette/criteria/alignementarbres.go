package criteria

import (
	"context"

	"github.com/MTES-MCT/envergo/internal/confstore"
	"github.com/MTES-MCT/envergo/internal/hedges"
	"github.com/MTES-MCT/envergo/internal/moulinette"
)

// alignementArbres is the code de l'environnement L350-3 check: removing a
// roadside tree alignment needs an authorization, except for safety works
// which only need a declaration.
type alignementArbres struct{ base }

func newAlignementArbres() *alignementArbres {
	return &alignementArbres{base{
		slug:     "alignement_arbres",
		label:    "Alignements d'arbres > L350-3",
		required: []string{"motif"},
		results: map[string]moulinette.Result{
			"soumis_securite":     moulinette.ResultSoumis,
			"soumis_esthetique":   moulinette.ResultSoumis,
			"soumis_autorisation": moulinette.ResultSoumis,
			"non_soumis":          moulinette.ResultNonSoumis,
		},
	}}
}

func (e *alignementArbres) Evaluate(ctx context.Context, cat *moulinette.Catalog, crit confstore.Criterion) (moulinette.Evaluation, error) {
	hd, err := cat.HedgeData()
	if err != nil {
		return moulinette.Evaluation{}, err
	}

	concerned := false
	for _, h := range hd.ToRemove() {
		if h.Type == hedges.TypeAlignement && h.Is(hedges.AttrRoadSide) {
			concerned = true
			break
		}
	}
	if !concerned {
		return moulinette.Evaluation{ResultCode: "non_soumis"}, nil
	}

	motif, _ := cat.Params.String("motif")
	var code string
	switch motif {
	case "securite":
		code = "soumis_securite"
	case "embellissement":
		code = "soumis_esthetique"
	default:
		code = "soumis_autorisation"
	}
	return moulinette.Evaluation{
		ResultCode: code,
		Catalog:    map[string]any{"roadside_alignment": true},
	}, nil
}
