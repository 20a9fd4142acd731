package criteria

import (
	"context"
	"fmt"
	"math"

	"github.com/MTES-MCT/envergo/internal/confstore"
	"github.com/MTES-MCT/envergo/internal/geostore"
	"github.com/MTES-MCT/envergo/internal/hedges"
	"github.com/MTES-MCT/envergo/internal/moulinette"
)

// epSimple is the default protected species stance: hedges shelter
// protected fauna, destroying one always falls under the interdiction.
type epSimple struct{ base }

func newEPSimple() *epSimple {
	return &epSimple{base{
		slug:  "ep_simple",
		label: "EP > EP simple",
		results: map[string]moulinette.Result{
			"soumis": moulinette.ResultSoumis,
		},
	}}
}

func (e *epSimple) Evaluate(ctx context.Context, cat *moulinette.Catalog, crit confstore.Criterion) (moulinette.Evaluation, error) {
	return moulinette.Evaluation{
		ResultCode: "soumis",
		Catalog:    map[string]any{"replantation_coefficient": 1.5},
	}, nil
}

// epAisne is the Aisne departmental doctrine: destruction without
// replanting is refused outright; with replanting, the dérogation path
// depends on whether inventoried sensitive species live in the hedges.
type epAisne struct{ base }

func newEPAisne() *epAisne {
	return &epAisne{base{
		slug:     "ep_aisne",
		label:    "EP > EP Aisne",
		required: []string{"reimplantation"},
		results: map[string]moulinette.Result{
			"interdit":              moulinette.ResultInterdit,
			"derogation_inventaire": moulinette.ResultSoumis,
			"derogation_simplifiee": moulinette.ResultSoumis,
		},
	}}
}

func (e *epAisne) Evaluate(ctx context.Context, cat *moulinette.Catalog, crit confstore.Criterion) (moulinette.Evaluation, error) {
	hd, err := cat.HedgeData()
	if err != nil {
		return moulinette.Evaluation{}, err
	}

	reimplantation, _ := cat.Params.String("reimplantation")
	if reimplantation == "non" {
		return moulinette.Evaluation{ResultCode: "interdit"}, nil
	}

	sensitive, taxons, err := sensitiveSpecies(ctx, cat, hd)
	if err != nil {
		return moulinette.Evaluation{}, err
	}

	code := "derogation_simplifiee"
	if sensitive {
		code = "derogation_inventaire"
	}
	return moulinette.Evaluation{
		ResultCode: code,
		Catalog: map[string]any{
			"sensitive_species":        sensitive,
			"taxons":                   taxons,
			"replantation_coefficient": 1.5,
		},
	}, nil
}

// sensitiveSpecies reports whether any hedge to remove sits in a protected
// species habitat zone carrying inventoried taxons.
func sensitiveSpecies(ctx context.Context, cat *moulinette.Catalog, hd *hedges.Data) (bool, []string, error) {
	var taxons []string
	seen := make(map[string]struct{})
	for _, h := range hd.ToRemove() {
		zones, err := cat.ZonesAt(ctx, h.Centroid(), geostore.MapTypeSpecies, geostore.CertaintyCertain)
		if err != nil {
			return false, nil, err
		}
		for _, z := range zones {
			for _, t := range z.TaxonIDs {
				if _, dup := seen[t]; !dup {
					seen[t] = struct{}{}
					taxons = append(taxons, t)
				}
			}
		}
	}
	return len(taxons) > 0, taxons, nil
}

// epNormandie is the Normandie doctrine. The outcome crosses the worst
// per-hedge replanting coefficient with the removal profile; the
// coefficient itself comes from the hedge type, the local hedge density
// relative to the farm's, and the natural zone group of the site.
type epNormandie struct{ base }

func newEPNormandie() *epNormandie {
	return &epNormandie{base{
		slug:     "ep_normandie",
		label:    "EP > EP Normandie",
		required: []string{"reimplantation"},
		results: map[string]moulinette.Result{
			"interdit":               moulinette.ResultInterdit,
			"derogation_simplifiee":  moulinette.ResultSoumis,
			"dispense_coupe_a_blanc": moulinette.ResultNonSoumis,
			"dispense_20m":           moulinette.ResultNonSoumis,
			"dispense_10m":           moulinette.ResultNonSoumis,
			"dispense_L350":          moulinette.ResultNonSoumis,
			"dispense":               moulinette.ResultNonSoumis,
			"a_verifier_L350":        moulinette.ResultAVerifier,
		},
	}}
}

// normandieCode keys: r_max bucket, every hedge ≤20m, every destruction a
// coupe à blanc, replanting intention.
type normandieKey struct {
	rMax         string
	lte20m       bool
	coupeABlanc  bool
	replantation string
}

var normandieCodes = map[normandieKey]string{
	{"0", true, false, "non"}: "dispense_10m", {"0", true, false, "remplacement"}: "dispense_10m", {"0", true, false, "replantation"}: "dispense_10m",
	{"lte_1", true, false, "non"}: "interdit", {"lte_1", true, false, "remplacement"}: "dispense_20m", {"lte_1", true, false, "replantation"}: "dispense_20m",
	{"gt_1", true, false, "non"}: "interdit", {"gt_1", true, false, "remplacement"}: "derogation_simplifiee", {"gt_1", true, false, "replantation"}: "derogation_simplifiee",
	{"0", true, true, "non"}: "dispense_10m", {"0", true, true, "remplacement"}: "dispense_10m", {"0", true, true, "replantation"}: "dispense_10m",
	{"lte_1", true, true, "non"}: "interdit", {"lte_1", true, true, "remplacement"}: "dispense_coupe_a_blanc", {"lte_1", true, true, "replantation"}: "dispense_20m",
	{"gt_1", true, true, "non"}: "interdit", {"gt_1", true, true, "remplacement"}: "dispense_coupe_a_blanc", {"gt_1", true, true, "replantation"}: "derogation_simplifiee",
	{"0", false, false, "non"}: "dispense_10m", {"0", false, false, "remplacement"}: "dispense_10m", {"0", false, false, "replantation"}: "dispense_10m",
	{"lte_1", false, false, "non"}: "interdit", {"lte_1", false, false, "remplacement"}: "dispense", {"lte_1", false, false, "replantation"}: "dispense",
	{"gt_1", false, false, "non"}: "interdit", {"gt_1", false, false, "remplacement"}: "derogation_simplifiee", {"gt_1", false, false, "replantation"}: "derogation_simplifiee",
	{"0", false, true, "non"}: "dispense_10m", {"0", false, true, "remplacement"}: "dispense_10m", {"0", false, true, "replantation"}: "dispense_10m",
	{"lte_1", false, true, "non"}: "interdit", {"lte_1", false, true, "remplacement"}: "dispense_coupe_a_blanc", {"lte_1", false, true, "replantation"}: "dispense",
	{"gt_1", false, true, "non"}: "interdit", {"gt_1", false, true, "remplacement"}: "dispense_coupe_a_blanc", {"gt_1", false, true, "replantation"}: "derogation_simplifiee",
}

// normandieCoefficients: per (hedge type, density ratio band) rows, one
// column per natural zone group. Column order: groupe 1 through 5 then the
// out-of-zone default.
type normandieRow struct {
	hedgeType hedges.Type
	band      string
}

var normandieZoneColumns = []string{
	"normandie_groupe_1", "normandie_groupe_2", "normandie_groupe_3",
	"normandie_groupe_4", "normandie_groupe_5", "normandie_groupe_absent",
}

var normandieCoefficients = map[normandieRow][6]float64{
	{hedges.TypeDegradee, "gt_1.6"}: {1.2, 1, 1, 1, 1, 1},
	{hedges.TypeBocagere, "gt_1.6"}: {1.4, 1, 1, 1, 1, 1},
	{hedges.TypeArbustive, "gt_1.6"}: {1.6, 1.4, 1, 1, 1, 1},
	{hedges.TypeAlignement, "gt_1.6"}: {1.6, 1.4, 1, 1, 1, 1},
	{hedges.TypeMixte, "gt_1.6"}: {1.8, 1.6, 1.2, 1, 1, 1.2},
	{hedges.TypeDegradee, "gt_1.2_lte_1.6"}: {1.4, 1.2, 1, 1, 1, 1},
	{hedges.TypeBocagere, "gt_1.2_lte_1.6"}: {1.6, 1.4, 1, 1, 1, 1},
	{hedges.TypeArbustive, "gt_1.2_lte_1.6"}: {1.8, 1.6, 1.2, 1, 1, 1.2},
	{hedges.TypeAlignement, "gt_1.2_lte_1.6"}: {1.8, 1.6, 1.2, 1, 1, 1.2},
	{hedges.TypeMixte, "gt_1.2_lte_1.6"}: {2, 1.8, 1.4, 1.2, 1, 1.4},
	{hedges.TypeDegradee, "gte_0.8_lte_1.2"}: {1.6, 1.4, 1, 1, 1, 1},
	{hedges.TypeBocagere, "gte_0.8_lte_1.2"}: {1.8, 1.6, 1.2, 1, 1, 1.2},
	{hedges.TypeArbustive, "gte_0.8_lte_1.2"}: {2, 1.8, 1.4, 1.2, 1, 1.4},
	{hedges.TypeAlignement, "gte_0.8_lte_1.2"}: {2, 1.8, 1.4, 1.2, 1, 1.4},
	{hedges.TypeMixte, "gte_0.8_lte_1.2"}: {2.2, 2, 1.6, 1.4, 1.2, 1.6},
	{hedges.TypeDegradee, "gte_0.5_lt_0.8"}: {1.8, 1.6, 1.4, 1.2, 1, 1.4},
	{hedges.TypeBocagere, "gte_0.5_lt_0.8"}: {2, 1.8, 1.6, 1.4, 1.2, 1.6},
	{hedges.TypeArbustive, "gte_0.5_lt_0.8"}: {2.5, 2, 1.8, 1.6, 1.4, 1.8},
	{hedges.TypeAlignement, "gte_0.5_lt_0.8"}: {2.5, 2, 1.8, 1.6, 1.4, 1.8},
	{hedges.TypeMixte, "gte_0.5_lt_0.8"}: {3, 2.6, 2.2, 1.8, 1.6, 2.2},
	{hedges.TypeDegradee, "lt_0.5"}: {2.2, 2, 1.8, 1.6, 1.4, 1.8},
	{hedges.TypeBocagere, "lt_0.5"}: {2.6, 2.2, 2, 1.8, 1.6, 2},
	{hedges.TypeArbustive, "lt_0.5"}: {3.2, 2.6, 2.2, 2, 1.8, 2.2},
	{hedges.TypeAlignement, "lt_0.5"}: {3.2, 2.6, 2.2, 2, 1.8, 2.2},
	{hedges.TypeMixte, "lt_0.5"}: {3.5, 3.2, 2.6, 2.2, 2, 2.6},
}

const normandieMaxCoefficient = 3.5

func normandieCoefficient(t hedges.Type, band, zoneGroup string) float64 {
	row, ok := normandieCoefficients[normandieRow{t, band}]
	if !ok {
		return 1
	}
	for i, col := range normandieZoneColumns {
		if col == zoneGroup {
			return row[i]
		}
	}
	return row[len(row)-1]
}

func densityRatioBand(ratio float64) string {
	switch {
	case ratio > 1.6:
		return "gt_1.6"
	case ratio > 1.2:
		return "gt_1.2_lte_1.6"
	case ratio >= 0.8:
		return "gte_0.8_lte_1.2"
	case ratio >= 0.5:
		return "gte_0.5_lt_0.8"
	default:
		return "lt_0.5"
	}
}

func (e *epNormandie) Evaluate(ctx context.Context, cat *moulinette.Catalog, crit confstore.Criterion) (moulinette.Evaluation, error) {
	hd, err := cat.HedgeData()
	if err != nil {
		return moulinette.Evaluation{}, err
	}

	reimplantation, _ := cat.Params.String("reimplantation")
	if reimplantation == "compensation" {
		reimplantation = "replantation"
	}

	centroid := hd.CentroidToRemove()

	// natural zone group of the site, from the zoning reference map
	zoneGroup := "normandie_groupe_absent"
	zones, err := cat.ZonesAt(ctx, centroid, geostore.MapTypeZoning, geostore.CertaintyCertain)
	if err != nil {
		return moulinette.Evaluation{}, err
	}
	if len(zones) > 0 {
		if id := zones[0].Attributes["identifiant_zone"]; id != "" {
			zoneGroup = id
		}
	}

	// the farm's own hedge density against the 5 km local density; a farm
	// in a denser-than-local landscape compensates less
	ratio := 1.0
	if farm, ok := cat.Params.Float("densite_exploitation"); ok && farm > 0 {
		local, err := cat.HedgeDensityAround(ctx, centroid, 5000)
		if err != nil {
			return moulinette.Evaluation{}, err
		}
		if local > 0 {
			ratio = farm / local
		}
	}
	band := densityRatioBand(ratio)

	var (
		rMax           float64
		minLength      float64
		lte20m         = true
		coupeABlanc    = true
		roadsideAligns = true
		details        []map[string]any
	)
	removed := hd.ToRemove()
	if len(removed) == 0 {
		rMax = normandieMaxCoefficient
	}
	for _, h := range removed {
		length := h.LengthM()
		if h.ModeDestruction != hedges.ModeCoupeABlanc {
			coupeABlanc = false
		}
		if h.Type != hedges.TypeAlignement || !h.Is(hedges.AttrRoadSide) {
			roadsideAligns = false
		}
		if length > 20 {
			lte20m = false
		}

		var r float64
		switch {
		case length <= 10:
			r = 0
		case h.Is(hedges.AttrNonBocageres):
			r = 1
		case length <= 20:
			r = 1
		case reimplantation == "remplacement" && h.ModeDestruction == hedges.ModeCoupeABlanc:
			r = 1
		default:
			r = normandieCoefficient(h.Type, band, zoneGroup)
		}

		rMax = math.Max(rMax, r)
		minLength += length * r
		details = append(details, map[string]any{
			"id":     h.ID,
			"type":   string(h.Type),
			"length": length,
			"r":      r,
		})
	}

	rMaxBucket := "gt_1"
	switch {
	case rMax == 0:
		rMaxBucket = "0"
	case rMax <= 1:
		rMaxBucket = "lte_1"
	}

	var code string
	if roadsideAligns && len(removed) > 0 {
		// every hedge is a roadside tree alignment: the L350-3 regime
		// takes over the species interdiction
		motif, _ := cat.Params.String("motif")
		if motif == "securite" {
			code = "dispense_L350"
		} else {
			code = "a_verifier_L350"
		}
	} else {
		var ok bool
		code, ok = normandieCodes[normandieKey{rMaxBucket, lte20m, coupeABlanc, reimplantation}]
		if !ok {
			return moulinette.Evaluation{}, fmt.Errorf("no outcome for reimplantation %q", reimplantation)
		}
	}

	aggregated := 0.0
	if code == "dispense_L350" || code == "a_verifier_L350" {
		aggregated = 1.0
	} else if total := hd.LengthToRemove(); total > 0 {
		aggregated = minLength / total
	}

	return moulinette.Evaluation{
		ResultCode: code,
		Catalog: map[string]any{
			"r_max":                    rMax,
			"density_ratio":            ratio,
			"density_zone":             zoneGroup,
			"minimum_length_to_plant":  minLength,
			"replantation_coefficient": aggregated,
			"hedges_compensation":      details,
		},
	}, nil
}
