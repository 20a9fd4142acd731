package criteria

import (
	"testing"

	"github.com/google/uuid"

	"github.com/MTES-MCT/envergo/internal/geo"
	"github.com/MTES-MCT/envergo/internal/geostore"
	"github.com/MTES-MCT/envergo/internal/geostore/memstore"
	"github.com/MTES-MCT/envergo/internal/hedges"
	"github.com/MTES-MCT/envergo/internal/moulinette"
)

const latDegM = 111194.93

// testCatalog builds a catalog over a fresh in-memory store, positioned at
// origin with the given project surface.
func testCatalog(store geostore.Store, surface float64, params moulinette.Params) *moulinette.Catalog {
	if params == nil {
		params = moulinette.Params{}
	}
	if store == nil {
		store = memstore.New()
	}
	params["created_surface"] = surface
	cat := moulinette.NewCatalog(store, params)
	cat.Department = "44"
	cat.HasCoords = true
	cat.Coords = geo.Point{Lng: -1.55, Lat: 47.21}
	cat.CreatedSurface = surface
	cat.ProjectSurface = surface
	return cat
}

// squareAt builds a closed square ring of the given half-size in meters
// around a point.
func squareAt(center geo.Point, halfM float64) geo.Ring {
	d := halfM / latDegM
	return geo.Ring{
		{Lng: center.Lng - d, Lat: center.Lat - d},
		{Lng: center.Lng + d, Lat: center.Lat - d},
		{Lng: center.Lng + d, Lat: center.Lat + d},
		{Lng: center.Lng - d, Lat: center.Lat + d},
		{Lng: center.Lng - d, Lat: center.Lat - d},
	}
}

func zoneNear(id int64, center geo.Point, halfM float64, mapType geostore.MapType, certainty geostore.Certainty) geostore.Zone {
	return geostore.Zone{
		ID: id,
		Map: &geostore.Map{
			ID:             id,
			Name:           "map " + string(mapType),
			Type:           mapType,
			Certainty:      certainty,
			DisplayForUser: true,
		},
		Geometry: geo.NewMultiPolygon([]geo.Ring{squareAt(center, halfM)}),
	}
}

func northHedge(t *testing.T, id string, role hedges.Role, typ hedges.Type, start geo.Point, meters float64, attrs map[string]bool) hedges.Hedge {
	t.Helper()
	return hedges.Hedge{
		ID:         id,
		Role:       role,
		Type:       typ,
		Geometry:   geo.Line{start, {Lng: start.Lng, Lat: start.Lat + meters/latDegM}},
		Attributes: attrs,
	}
}

func hedgeSet(t *testing.T, hs ...hedges.Hedge) *hedges.Data {
	t.Helper()
	d, err := hedges.NewData(uuid.New(), hs)
	if err != nil {
		t.Fatalf("NewData: %v", err)
	}
	return d
}

func TestRegister_AllConfiguredTagsResolve(t *testing.T) {
	r := All()

	tags := []string{
		"loi_sur_leau.zone_humide",
		"loi_sur_leau.zone_inondable",
		"loi_sur_leau.ruissellement",
		"loi_sur_leau.ruissellement_bassin_versant",
		"loi_sur_leau.autres_rubriques",
		"natura2000.zone_humide",
		"natura2000.zone_inondable",
		"natura2000.iota",
		"natura2000.lotissement",
		"natura2000.autorisation_urba",
		"natura2000.autorisation_urba_exc_lotissement",
		"eval_env.emprise",
		"eval_env.surface_plancher",
		"eval_env.terrain_assiette",
		"eval_env.route_publique",
		"eval_env.voie_privee",
		"eval_env.piste_cyclable",
		"eval_env.aire_de_stationnement",
		"eval_env.camping",
		"eval_env.autres_rubriques",
		"sage.interdiction_impact_zh",
		"sage.interdiction_impact_zh_strict",
		"conditionnalite_pac.bcae8",
		"especes_protegees.ep_simple",
		"especes_protegees.ep_aisne",
		"especes_protegees.ep_normandie",
		"alignement_arbres.alignement_arbres",
		"natura2000_haie.natura2000_haie",
	}
	for _, tag := range tags {
		ev, ok := r.Lookup(tag)
		if !ok {
			t.Fatalf("tag %s not registered", tag)
		}
		for _, code := range ev.ResultCodes() {
			if ev.ResultFor(code) == moulinette.ResultNonDisponible && code != "non_disponible" {
				t.Fatalf("tag %s: code %s has no result mapping", tag, code)
			}
		}
	}
}
