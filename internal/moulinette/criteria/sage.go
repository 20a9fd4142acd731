package criteria

import (
	"context"

	"github.com/MTES-MCT/envergo/internal/confstore"
	"github.com/MTES-MCT/envergo/internal/geostore"
	"github.com/MTES-MCT/envergo/internal/moulinette"
)

// sageWetlandBan implements the SAGE règlements that forbid any wetland
// destruction inside their perimeter. The surface threshold is a setting
// because each SAGE picks its own; the medium band starts at 70% of it.
type sageWetlandBan struct{ base }

func newSageWetlandBan() *sageWetlandBan {
	return &sageWetlandBan{base{
		slug:     "interdiction_impact_zh",
		label:    "SAGE > Interdiction d'impact en zone humide",
		required: []string{"created_surface"},
		results: map[string]moulinette.Result{
			"interdit":                           moulinette.ResultInterdit,
			"action_requise_interdit":            moulinette.ResultActionRequise,
			"action_requise_proche_interdit":     moulinette.ResultActionRequise,
			"action_requise_dans_doute_interdit": moulinette.ResultActionRequise,
			"action_requise_tout_dpt_interdit":   moulinette.ResultActionRequise,
			"non_soumis":                         moulinette.ResultNonSoumis,
			"non_soumis_dehors":                  moulinette.ResultNonSoumis,
		},
	}}
}

func (e *sageWetlandBan) Evaluate(ctx context.Context, cat *moulinette.Catalog, crit confstore.Criterion) (moulinette.Evaluation, error) {
	inside, err := cat.WetlandsWithin(ctx, wetlandInsideM)
	if err != nil {
		return moulinette.Evaluation{}, err
	}
	forbidden, err := cat.ForbiddenWetlandsWithin(ctx, wetlandInsideM)
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
	case len(inside) > 0 || len(forbidden) > 0:
		status = "inside"
	case len(nearby) > 0:
		status = "close_to"
	case len(potential) > 0:
		status = "inside_potential"
	// some departments apply the SAGE doctrine to their whole territory
	case crit.Settings.Bool("wetlands_all_department", false):
		status = "inside_wetlands_dpt"
	}

	threshold := crit.Settings.Float("threshold", 150)
	size := sageSize(cat.ProjectSurface, threshold)

	display := make([]geostore.Zone, 0, len(nearby)+len(forbidden)+len(potential))
	display = append(display, nearby...)
	display = append(display, forbidden...)
	display = append(display, potential...)

	return moulinette.Evaluation{
		ResultCode: sageCode(status, size),
		Catalog: map[string]any{
			"wetland_status": status,
			"project_size":   size,
			"threshold":      threshold,
		},
		Map: zonesMap("Zones humides du SAGE", display, "teal"),
	}, nil
}

// sageSize buckets the project surface. A project declaring no surface at
// all cannot trip the ban, whatever the threshold.
func sageSize(surface, threshold float64) string {
	switch {
	case surface <= 0:
		return "small"
	case surface >= threshold:
		return "big"
	case surface >= 0.7*threshold:
		return "medium"
	default:
		return "small"
	}
}

func sageCode(status, size string) string {
	switch status {
	case "inside":
		switch size {
		case "big":
			return "interdit"
		case "medium":
			return "action_requise_interdit"
		}
		return "non_soumis"
	case "close_to":
		if size == "big" {
			return "action_requise_proche_interdit"
		}
		return "non_soumis"
	case "inside_potential":
		if size == "big" {
			return "action_requise_dans_doute_interdit"
		}
		return "non_soumis"
	case "inside_wetlands_dpt":
		if size == "big" {
			return "action_requise_tout_dpt_interdit"
		}
		return "non_soumis"
	default:
		return "non_soumis_dehors"
	}
}

// sageWetlandBanStrict only trusts the maps published by the SAGE itself
// (forbidden certainty), with no doubt band.
type sageWetlandBanStrict struct{ base }

func newSageWetlandBanStrict() *sageWetlandBanStrict {
	return &sageWetlandBanStrict{base{
		slug:     "interdiction_impact_zh_strict",
		label:    "SAGE > Interdiction d'impact en zone humide (cartes opposables)",
		required: []string{"created_surface"},
		results: map[string]moulinette.Result{
			"interdit":                       moulinette.ResultInterdit,
			"action_requise_interdit":        moulinette.ResultActionRequise,
			"action_requise_proche_interdit": moulinette.ResultActionRequise,
			"non_soumis":                     moulinette.ResultNonSoumis,
			"non_soumis_dehors":              moulinette.ResultNonSoumis,
		},
	}}
}

func (e *sageWetlandBanStrict) Evaluate(ctx context.Context, cat *moulinette.Catalog, crit confstore.Criterion) (moulinette.Evaluation, error) {
	inside, err := cat.ForbiddenWetlandsWithin(ctx, wetlandInsideM)
	if err != nil {
		return moulinette.Evaluation{}, err
	}
	nearby, err := cat.ForbiddenWetlandsWithin(ctx, wetlandCloseToM)
	if err != nil {
		return moulinette.Evaluation{}, err
	}

	status := "outside"
	switch {
	case len(inside) > 0:
		status = "inside"
	case len(nearby) > 0:
		status = "close_to"
	}

	threshold := crit.Settings.Float("threshold", 150)
	size := sageSize(cat.ProjectSurface, threshold)

	var code string
	switch {
	case status == "inside" && size == "big":
		code = "interdit"
	case status == "inside" && size == "medium":
		code = "action_requise_interdit"
	case status == "close_to" && size == "big":
		code = "action_requise_proche_interdit"
	case status == "outside":
		code = "non_soumis_dehors"
	default:
		code = "non_soumis"
	}

	return moulinette.Evaluation{
		ResultCode: code,
		Catalog: map[string]any{
			"wetland_status": status,
			"project_size":   size,
		},
		Map: zonesMap("Zones humides du SAGE", nearby, "teal"),
	}, nil
}
