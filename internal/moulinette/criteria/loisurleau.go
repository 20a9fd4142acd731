package criteria

import (
	"context"

	"github.com/MTES-MCT/envergo/internal/confstore"
	"github.com/MTES-MCT/envergo/internal/geostore"
	"github.com/MTES-MCT/envergo/internal/moulinette"
)

// Proximity bands for the wetland and flood zone lookups, in meters.
const (
	wetlandInsideM  = 25.0
	wetlandCloseToM = 100.0
	floodInsideM    = 12.0
)

// wetlandImpact is the IOTA rubric 3.3.1.0 check: projects destroying
// wetland surface above the declaration threshold.
type wetlandImpact struct{ base }

func newWetlandImpact() *wetlandImpact {
	return &wetlandImpact{base{
		slug:     "zone_humide",
		label:    "Loi sur l'eau > Zone humide",
		required: []string{"created_surface"},
		results: map[string]moulinette.Result{
			"soumis":                          moulinette.ResultSoumis,
			"action_requise_inside":           moulinette.ResultActionRequise,
			"action_requise_close_to":         moulinette.ResultActionRequise,
			"action_requise_inside_potential": moulinette.ResultActionRequise,
			"non_soumis":                      moulinette.ResultNonSoumis,
			"non_applicable":                  moulinette.ResultNonApplicable,
		},
	}}
}

func (e *wetlandImpact) Evaluate(ctx context.Context, cat *moulinette.Catalog, crit confstore.Criterion) (moulinette.Evaluation, error) {
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
	size := projectSize(cat.ProjectSurface, 1000, 700)

	code := wetlandCode(status, size)
	data := map[string]any{
		"wetland_status":       status,
		"project_size":         size,
		"wetlands_within_25m":  len(inside) > 0,
		"wetlands_within_100m": len(nearby) > 0,
		"potential_wetlands":   len(potential) > 0,
	}
	display := make([]geostore.Zone, 0, len(nearby)+len(potential))
	display = append(display, nearby...)
	display = append(display, potential...)
	return moulinette.Evaluation{
		ResultCode: code,
		Catalog:    data,
		Map:        zonesMap("Zones humides à proximité", display, "blue"),
	}, nil
}

func wetlandCode(status, size string) string {
	switch status {
	case "inside":
		switch size {
		case "big":
			return "soumis"
		case "medium":
			return "action_requise_inside"
		}
		return "non_soumis"
	case "close_to":
		if size == "big" {
			return "action_requise_close_to"
		}
		return "non_soumis"
	case "inside_potential":
		if size == "big" {
			return "action_requise_inside_potential"
		}
		return "non_soumis"
	default:
		// outside a known wetland the rubric cannot apply, whatever the
		// surface: the declaration duty stays with the petitioner
		if size == "small" {
			return "non_soumis"
		}
		return "non_applicable"
	}
}

// floodZoneImpact is the rubric 3.2.2.0 check on flood zone fill-in.
type floodZoneImpact struct{ base }

func newFloodZoneImpact() *floodZoneImpact {
	return &floodZoneImpact{base{
		slug:     "zone_inondable",
		label:    "Loi sur l'eau > Zone inondable",
		required: []string{"created_surface"},
		results: map[string]moulinette.Result{
			"soumis":         moulinette.ResultSoumis,
			"action_requise": moulinette.ResultActionRequise,
			"non_soumis":     moulinette.ResultNonSoumis,
			"non_applicable": moulinette.ResultNonApplicable,
		},
	}}
}

func (e *floodZoneImpact) Evaluate(ctx context.Context, cat *moulinette.Catalog, crit confstore.Criterion) (moulinette.Evaluation, error) {
	zones, err := cat.FloodZonesWithin(ctx, floodInsideM)
	if err != nil {
		return moulinette.Evaluation{}, err
	}

	inside := len(zones) > 0
	size := projectSize(cat.ProjectSurface, 400, 300)

	var code string
	switch {
	case inside && size == "big":
		code = "soumis"
	case inside && size == "medium":
		code = "action_requise"
	case !inside && size != "small":
		code = "non_applicable"
	default:
		code = "non_soumis"
	}

	return moulinette.Evaluation{
		ResultCode: code,
		Catalog: map[string]any{
			"flood_zones_within_12m": inside,
			"project_size":           size,
		},
		Map: zonesMap("Zones inondables à proximité", zones, "red"),
	}, nil
}

// runoff is the rubric 2.1.5.0 check on rainwater interception surface.
type runoff struct{ base }

func newRunoff() *runoff {
	return &runoff{base{
		slug:     "ruissellement",
		label:    "Loi sur l'eau > Ruissellement",
		required: []string{"created_surface"},
		results: map[string]moulinette.Result{
			"soumis":         moulinette.ResultSoumis,
			"action_requise": moulinette.ResultActionRequise,
			"non_soumis":     moulinette.ResultNonSoumis,
		},
	}}
}

func (e *runoff) Evaluate(ctx context.Context, cat *moulinette.Catalog, crit confstore.Criterion) (moulinette.Evaluation, error) {
	return moulinette.Evaluation{
		ResultCode: runoffCode(cat.ProjectSurface),
		Catalog:    map[string]any{"intercepted_surface": cat.ProjectSurface},
	}, nil
}

func runoffCode(surface float64) string {
	switch {
	case surface >= 10000:
		return "soumis"
	case surface >= 8000:
		return "action_requise"
	default:
		return "non_soumis"
	}
}

// runoffCatchment refines the runoff check: the intercepted surface
// includes the upstream catchment area interpolated from the raster
// tiles at the project location.
type runoffCatchment struct{ base }

func newRunoffCatchment() *runoffCatchment {
	return &runoffCatchment{base{
		slug:     "ruissellement_bassin_versant",
		label:    "Loi sur l'eau > Ruissellement (bassin versant)",
		required: []string{"created_surface"},
		results: map[string]moulinette.Result{
			"soumis":         moulinette.ResultSoumis,
			"action_requise": moulinette.ResultActionRequise,
			"non_soumis":     moulinette.ResultNonSoumis,
		},
	}}
}

func (e *runoffCatchment) Evaluate(ctx context.Context, cat *moulinette.Catalog, crit confstore.Criterion) (moulinette.Evaluation, error) {
	area, ok, err := cat.CatchmentAreaM2(ctx)
	if err != nil {
		return moulinette.Evaluation{}, err
	}

	total := cat.ProjectSurface
	if ok {
		total += float64(area)
	}

	data := map[string]any{
		"intercepted_surface": total,
		"catchment_area":      area,
	}
	if !ok {
		data["catchment_unavailable"] = true
	}
	return moulinette.Evaluation{ResultCode: runoffCode(total), Catalog: data}, nil
}

// otherRubrics stands in for the rubrics the simulator does not compute.
type otherRubrics struct{ base }

func newOtherRubrics(label string) *otherRubrics {
	return &otherRubrics{base{
		slug:  "autres_rubriques",
		label: label,
		results: map[string]moulinette.Result{
			"non_disponible": moulinette.ResultNonDisponible,
		},
	}}
}

func (e *otherRubrics) Evaluate(ctx context.Context, cat *moulinette.Catalog, crit confstore.Criterion) (moulinette.Evaluation, error) {
	return moulinette.Evaluation{ResultCode: "non_disponible"}, nil
}
