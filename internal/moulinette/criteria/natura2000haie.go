package criteria

import (
	"context"

	"github.com/MTES-MCT/envergo/internal/confstore"
	"github.com/MTES-MCT/envergo/internal/moulinette"
)

// n2000Haie is the Natura 2000 check for hedge destruction. Whether hedge
// works inside the site perimeter need an impact assessment is a decision
// each department writes into its decree, so the outcome is a setting.
type n2000Haie struct{ base }

func newN2000Haie() *n2000Haie {
	return &n2000Haie{base{
		slug:  "natura2000_haie",
		label: "Natura 2000 > Haie",
		results: map[string]moulinette.Result{
			"soumis":     moulinette.ResultSoumis,
			"non_soumis": moulinette.ResultNonSoumis,
		},
	}}
}

func (e *n2000Haie) Evaluate(ctx context.Context, cat *moulinette.Catalog, crit confstore.Criterion) (moulinette.Evaluation, error) {
	// hedge requests carry no project point, so the perimeter test runs
	// here against the hedges themselves
	if crit.Activation != nil {
		hd, err := cat.HedgeData()
		if err != nil {
			return moulinette.Evaluation{}, err
		}
		touches := false
		for _, h := range hd.ToRemove() {
			if crit.Activation.WithinDistanceM(h.Centroid(), crit.ActivationDistanceM) {
				touches = true
				break
			}
		}
		if !touches {
			return moulinette.Evaluation{ResultCode: "non_soumis"}, nil
		}
	}

	code := crit.Settings.String("result", "non_soumis")
	if _, known := e.results[code]; !known {
		code = "non_soumis"
	}
	return moulinette.Evaluation{ResultCode: code}, nil
}
