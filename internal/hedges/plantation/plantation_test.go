package plantation

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/MTES-MCT/envergo/internal/confstore"
	"github.com/MTES-MCT/envergo/internal/geo"
	"github.com/MTES-MCT/envergo/internal/hedges"
)

const latDegM = 111194.93

func northLine(start geo.Point, meters float64) geo.Line {
	return geo.Line{start, {Lng: start.Lng, Lat: start.Lat + meters/latDegM}}
}

func data(t *testing.T, hs []hedges.Hedge) *hedges.Data {
	t.Helper()
	d, err := hedges.NewData(uuid.New(), hs)
	if err != nil {
		t.Fatalf("NewData: %v", err)
	}
	return d
}

func check(t *testing.T, r Result, name string) CheckResult {
	t.Helper()
	for _, c := range r.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q missing from %+v", name, r.Checks)
	return CheckResult{}
}

// Calvados-style rules: replant twice the removed length.
func calvadosRules() confstore.PlantationRules {
	return confstore.PlantationRules{ReplantationCoefficient: 2.0}
}

func TestEvaluate_LengthInadequateWithoutPlantation(t *testing.T) {
	d := data(t, []hedges.Hedge{
		{ID: "D1", Role: hedges.RoleToRemove, Type: hedges.TypeBocagere,
			Geometry: northLine(geo.Point{Lng: -0.36, Lat: 49.18}, 100)},
	})

	r := New(calvadosRules()).Evaluate(d)
	if r.Result != StatusInadequate {
		t.Fatalf("result: got %s, want inadequate", r.Result)
	}
	if r.MinimumLengthToPlant != 200 {
		t.Fatalf("MinimumLengthToPlant: got %g, want 200", r.MinimumLengthToPlant)
	}
	lc := check(t, r, CheckLength)
	if lc.Status != StatusInadequate || lc.Expected != 200 || lc.Actual != 0 {
		t.Fatalf("length check: %+v", lc)
	}
}

func TestEvaluate_AdequateWithEnoughPlantation(t *testing.T) {
	d := data(t, []hedges.Hedge{
		{ID: "D1", Role: hedges.RoleToRemove, Type: hedges.TypeBocagere,
			Geometry: northLine(geo.Point{Lng: -0.36, Lat: 49.18}, 100)},
		{ID: "P1", Role: hedges.RoleToPlant, Type: hedges.TypeBocagere,
			Geometry: northLine(geo.Point{Lng: -0.361, Lat: 49.18}, 250)},
	})

	r := New(calvadosRules()).Evaluate(d)
	if r.Result != StatusAdequate {
		t.Fatalf("result: got %s, want adequate (%+v)", r.Result, r.Checks)
	}
	if c := check(t, r, CheckLength); c.Status != StatusAdequate {
		t.Fatalf("length check: %+v", c)
	}
	if c := check(t, r, CheckQuality); c.Status != StatusAdequate {
		t.Fatalf("quality check: %+v", c)
	}
}

func TestCheckQuality_PlantedShareBelowRemovedShare(t *testing.T) {
	// removal is all bocagere, plantation is all arbustive
	d := data(t, []hedges.Hedge{
		{ID: "D1", Role: hedges.RoleToRemove, Type: hedges.TypeBocagere,
			Geometry: northLine(geo.Point{Lng: -0.36, Lat: 49.18}, 100)},
		{ID: "P1", Role: hedges.RoleToPlant, Type: hedges.TypeArbustive,
			Geometry: northLine(geo.Point{Lng: -0.361, Lat: 49.18}, 150)},
	})

	r := New(confstore.PlantationRules{ReplantationCoefficient: 1.0}).Evaluate(d)
	if c := check(t, r, CheckQuality); c.Status != StatusInadequate {
		t.Fatalf("quality check: %+v", c)
	}
	if r.Result != StatusInadequate {
		t.Fatalf("result: got %s, want inadequate", r.Result)
	}
}

func TestCheckQuality_DepartmentFloorApplies(t *testing.T) {
	// removal is all arbustive so the removed share is zero, but the
	// department floor still demands half the plantation in quality types
	d := data(t, []hedges.Hedge{
		{ID: "D1", Role: hedges.RoleToRemove, Type: hedges.TypeArbustive,
			Geometry: northLine(geo.Point{Lng: -0.36, Lat: 49.18}, 100)},
		{ID: "P1", Role: hedges.RoleToPlant, Type: hedges.TypeArbustive,
			Geometry: northLine(geo.Point{Lng: -0.361, Lat: 49.18}, 100)},
	})

	rules := confstore.PlantationRules{ReplantationCoefficient: 1.0, QualityFloor: 0.5}
	r := New(rules).Evaluate(d)
	if c := check(t, r, CheckQuality); c.Status != StatusInadequate || c.Expected != 0.5 {
		t.Fatalf("quality check: %+v", c)
	}
}

func TestCheckProximity_RadiusRequired(t *testing.T) {
	origin := geo.Point{Lng: -0.36, Lat: 49.18}
	near := geo.Point{Lng: -0.36, Lat: 49.18 + 100/latDegM}
	far := geo.Point{Lng: -0.36, Lat: 49.18 + 5000/latDegM}

	build := func(plantStart geo.Point) *hedges.Data {
		return data(t, []hedges.Hedge{
			{ID: "D1", Role: hedges.RoleToRemove, Type: hedges.TypeBocagere,
				Geometry: northLine(origin, 50)},
			{ID: "P1", Role: hedges.RoleToPlant, Type: hedges.TypeBocagere,
				Geometry: northLine(plantStart, 50)},
		})
	}

	rules := confstore.PlantationRules{ReplantationCoefficient: 1.0, ProximityRadiusM: 400}
	if c := check(t, New(rules).Evaluate(build(near)), CheckProximity); c.Status != StatusAdequate {
		t.Fatalf("near plantation: %+v", c)
	}
	if c := check(t, New(rules).Evaluate(build(far)), CheckProximity); c.Status != StatusInadequate {
		t.Fatalf("far plantation: %+v", c)
	}

	// no radius configured: the check does not apply
	rules.ProximityRadiusM = 0
	if c := check(t, New(rules).Evaluate(build(far)), CheckProximity); c.Status != StatusNotApplicable {
		t.Fatalf("disabled proximity: %+v", c)
	}
}

func TestCheckOldTree_RequiresAlignementReplacement(t *testing.T) {
	origin := geo.Point{Lng: -0.36, Lat: 49.18}
	removed := hedges.Hedge{
		ID: "D1", Role: hedges.RoleToRemove, Type: hedges.TypeMixte,
		Geometry:   northLine(origin, 80),
		Attributes: map[string]bool{hedges.AttrOldTree: true},
	}

	// bocagere replacement does not count, alignement does
	d := data(t, []hedges.Hedge{removed,
		{ID: "P1", Role: hedges.RoleToPlant, Type: hedges.TypeBocagere,
			Geometry: northLine(origin, 200)},
	})
	r := New(confstore.PlantationRules{}).Evaluate(d)
	if c := check(t, r, CheckOldTree); c.Status != StatusInadequate {
		t.Fatalf("without alignement: %+v", c)
	}

	d = data(t, []hedges.Hedge{removed,
		{ID: "P1", Role: hedges.RoleToPlant, Type: hedges.TypeAlignement,
			Geometry: northLine(origin, 80)},
	})
	r = New(confstore.PlantationRules{}).Evaluate(d)
	if c := check(t, r, CheckOldTree); c.Status != StatusAdequate {
		t.Fatalf("with alignement: %+v", c)
	}
}

func TestCheckPond_LikeForLike(t *testing.T) {
	origin := geo.Point{Lng: -0.36, Lat: 49.18}
	d := data(t, []hedges.Hedge{
		{ID: "D1", Role: hedges.RoleToRemove, Type: hedges.TypeBocagere,
			Geometry:   northLine(origin, 60),
			Attributes: map[string]bool{hedges.AttrNearPond: true}},
		{ID: "P1", Role: hedges.RoleToPlant, Type: hedges.TypeBocagere,
			Geometry:   northLine(origin, 60),
			Attributes: map[string]bool{hedges.AttrNearPond: true}},
	})

	r := New(confstore.PlantationRules{}).Evaluate(d)
	if c := check(t, r, CheckPond); c.Status != StatusAdequate {
		t.Fatalf("pond check: %+v", c)
	}

	// same removal, planted hedge away from any pond
	d = data(t, []hedges.Hedge{
		{ID: "D1", Role: hedges.RoleToRemove, Type: hedges.TypeBocagere,
			Geometry:   northLine(origin, 60),
			Attributes: map[string]bool{hedges.AttrNearPond: true}},
		{ID: "P1", Role: hedges.RoleToPlant, Type: hedges.TypeBocagere,
			Geometry: northLine(origin, 60)},
	})
	r = New(confstore.PlantationRules{}).Evaluate(d)
	if c := check(t, r, CheckPond); c.Status != StatusInadequate {
		t.Fatalf("pond check: %+v", c)
	}
}

func TestEvaluate_NotApplicableChecksDoNotBlockAdequate(t *testing.T) {
	d := data(t, []hedges.Hedge{
		{ID: "D1", Role: hedges.RoleToRemove, Type: hedges.TypeBocagere,
			Geometry: northLine(geo.Point{Lng: -0.36, Lat: 49.18}, 50)},
		{ID: "P1", Role: hedges.RoleToPlant, Type: hedges.TypeBocagere,
			Geometry: northLine(geo.Point{Lng: -0.36, Lat: 49.18}, 50)},
	})

	r := New(confstore.PlantationRules{}).Evaluate(d)
	if r.Result != StatusAdequate {
		t.Fatalf("result: got %s, want adequate (%+v)", r.Result, r.Checks)
	}
}

func TestCheckPowerLine_HighGrowingHedgeCondemnsThePlan(t *testing.T) {
	d := data(t, []hedges.Hedge{
		{ID: "D1", Role: hedges.RoleToRemove, Type: hedges.TypeMixte,
			Geometry: northLine(geo.Point{Lng: -0.36, Lat: 49.18}, 100)},
		{ID: "P1", Role: hedges.RoleToPlant, Type: hedges.TypeMixte,
			Geometry:   northLine(geo.Point{Lng: -0.36, Lat: 49.18}, 250),
			Attributes: map[string]bool{hedges.AttrUnderPowerLine: true}},
	})

	r := New(confstore.PlantationRules{ReplantationCoefficient: 1}).Evaluate(d)
	if r.Result != StatusInadequate {
		t.Fatalf("result: got %s, want inadequate", r.Result)
	}
	pc := check(t, r, CheckPowerLine)
	if pc.Status != StatusInadequate || pc.Actual != 1 {
		t.Fatalf("power line check: %+v", pc)
	}
}

func TestCheckPowerLine_LowHedgeUnderPowerLineAllowed(t *testing.T) {
	// arbustive hedges stay low, power line or not
	d := data(t, []hedges.Hedge{
		{ID: "D1", Role: hedges.RoleToRemove, Type: hedges.TypeArbustive,
			Geometry: northLine(geo.Point{Lng: -0.36, Lat: 49.18}, 100)},
		{ID: "P1", Role: hedges.RoleToPlant, Type: hedges.TypeArbustive,
			Geometry:   northLine(geo.Point{Lng: -0.36, Lat: 49.18}, 100),
			Attributes: map[string]bool{hedges.AttrUnderPowerLine: true}},
	})

	r := New(confstore.PlantationRules{ReplantationCoefficient: 1}).Evaluate(d)
	pc := check(t, r, CheckPowerLine)
	if pc.Status != StatusAdequate {
		t.Fatalf("power line check: %+v", pc)
	}
	if r.Result != StatusAdequate {
		t.Fatalf("result: got %s, want adequate", r.Result)
	}
}

func TestResult_ToJSON(t *testing.T) {
	d := data(t, []hedges.Hedge{
		{ID: "D1", Role: hedges.RoleToRemove, Type: hedges.TypeBocagere,
			Geometry: northLine(geo.Point{Lng: -0.36, Lat: 49.18}, 100)},
	})

	raw, err := New(calvadosRules()).Evaluate(d).ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded["result"] != "inadequate" {
		t.Fatalf("result field: %v", decoded["result"])
	}
	if decoded["minimum_length_to_plant"] != 200.0 {
		t.Fatalf("minimum_length_to_plant: %v", decoded["minimum_length_to_plant"])
	}
}
