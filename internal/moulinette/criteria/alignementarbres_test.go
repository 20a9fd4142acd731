package criteria

import (
	"context"
	"testing"

	"github.com/MTES-MCT/envergo/internal/confstore"
	"github.com/MTES-MCT/envergo/internal/geo"
	"github.com/MTES-MCT/envergo/internal/hedges"
	"github.com/MTES-MCT/envergo/internal/moulinette"
)

func TestAlignementArbres_Matrix(t *testing.T) {
	start := geo.Point{Lng: 0.2, Lat: 48.0}

	for _, c := range []struct {
		name     string
		roadside bool
		motif    string
		want     string
	}{
		{"safety works", true, "securite", "soumis_securite"},
		{"esthetic works", true, "embellissement", "soumis_esthetique"},
		{"any other reason", true, "amenagement", "soumis_autorisation"},
		{"no roadside alignment", false, "securite", "non_soumis"},
	} {
		attrs := map[string]bool{}
		typ := hedges.TypeBocagere
		if c.roadside {
			attrs[hedges.AttrRoadSide] = true
			typ = hedges.TypeAlignement
		}
		cat := testCatalog(nil, 0, moulinette.Params{"motif": c.motif})
		cat.Hedges = hedgeSet(t,
			northHedge(t, "r1", hedges.RoleToRemove, typ, start, 60, attrs),
		)

		out, err := newAlignementArbres().Evaluate(context.Background(), cat, confstore.Criterion{})
		if err != nil {
			t.Fatalf("%s: Evaluate: %v", c.name, err)
		}
		if out.ResultCode != c.want {
			t.Errorf("%s: code = %s, want %s", c.name, out.ResultCode, c.want)
		}
	}
}

func TestAlignementArbres_RoadsideAttributeAloneIsNotEnough(t *testing.T) {
	// a bocage hedge along a road is not a tree alignment
	cat := testCatalog(nil, 0, moulinette.Params{"motif": "securite"})
	cat.Hedges = hedgeSet(t,
		northHedge(t, "r1", hedges.RoleToRemove, hedges.TypeBocagere, geo.Point{Lng: 0.2, Lat: 48.0}, 60,
			map[string]bool{hedges.AttrRoadSide: true}),
	)

	out, err := newAlignementArbres().Evaluate(context.Background(), cat, confstore.Criterion{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.ResultCode != "non_soumis" {
		t.Fatalf("code = %s, want non_soumis", out.ResultCode)
	}
}

func TestN2000Haie_SettingsDriven(t *testing.T) {
	cat := testCatalog(nil, 0, nil)

	out, err := newN2000Haie().Evaluate(context.Background(), cat, confstore.Criterion{
		Settings: confstore.Settings{"result": "soumis"},
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.ResultCode != "soumis" {
		t.Fatalf("code = %s, want soumis", out.ResultCode)
	}

	out, err = newN2000Haie().Evaluate(context.Background(), cat, confstore.Criterion{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.ResultCode != "non_soumis" {
		t.Fatalf("default code = %s, want non_soumis", out.ResultCode)
	}
}

func TestN2000Haie_PerimeterGate(t *testing.T) {
	start := geo.Point{Lng: 0.2, Lat: 48.0}
	far := geo.NewMultiPolygon([]geo.Ring{squareAt(geo.Point{Lng: 2.0, Lat: 48.0}, 500)})

	cat := testCatalog(nil, 0, nil)
	cat.Hedges = hedgeSet(t,
		northHedge(t, "r1", hedges.RoleToRemove, hedges.TypeBocagere, start, 60, nil),
	)

	out, err := newN2000Haie().Evaluate(context.Background(), cat, confstore.Criterion{
		Activation: far,
		Settings:   confstore.Settings{"result": "soumis"},
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.ResultCode != "non_soumis" {
		t.Fatalf("code = %s, want non_soumis outside the perimeter", out.ResultCode)
	}

	near := geo.NewMultiPolygon([]geo.Ring{squareAt(start, 500)})
	out, err = newN2000Haie().Evaluate(context.Background(), cat, confstore.Criterion{
		Activation: near,
		Settings:   confstore.Settings{"result": "soumis"},
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.ResultCode != "soumis" {
		t.Fatalf("code = %s, want soumis inside the perimeter", out.ResultCode)
	}
}
