package memstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MTES-MCT/envergo/internal/geo"
	"github.com/MTES-MCT/envergo/internal/geostore"
)

const hedgeMapDoc = `{
	"id": 3,
	"name": "Bocage Calvados",
	"map_type": "haie",
	"departments": ["14"],
	"lines": [{
		"id": 21,
		"geometry": {
			"type": "MultiLineString",
			"coordinates": [[[-0.36,49.18],[-0.36,49.181]],[[-0.359,49.18],[-0.359,49.181]]]
		}
	}]
}`

const badGeometryDoc = `{
	"map_type": "zone_humide",
	"zones": [{"id": 1, "geometry": {"type": "Point", "coordinates": [1, 2]}}]
}`

func TestParseMapDoc_LinesAndDefaults(t *testing.T) {
	zones, lines, err := ParseMapDoc(strings.NewReader(hedgeMapDoc))
	if err != nil {
		t.Fatalf("ParseMapDoc: %v", err)
	}
	if len(zones) != 0 || len(lines) != 1 {
		t.Fatalf("zones=%d lines=%d want 0/1", len(zones), len(lines))
	}
	l := lines[0]
	if l.Map.Type != geostore.MapTypeHedge || l.Map.Certainty != geostore.CertaintyCertain {
		t.Errorf("map metadata: %+v", l.Map)
	}
	if len(l.Geometry) != 2 {
		t.Errorf("parts=%d want 2", len(l.Geometry))
	}
}

func TestParseMapDoc_RejectsNonPolygonZone(t *testing.T) {
	if _, _, err := ParseMapDoc(strings.NewReader(badGeometryDoc)); err == nil {
		t.Fatalf("expected geometry error")
	}
}

func TestLoadDir_FeedsStoreQueries(t *testing.T) {
	dir := t.TempDir()
	doc := `{
		"id": 1,
		"name": "Zones humides",
		"map_type": "zone_humide",
		"certainty": "certain",
		"departments": ["44"],
		"zones": [{
			"id": 10,
			"area_m2": 4000,
			"attributes": {"code": "ZH-10"},
			"geometry": {
				"type": "Polygon",
				"coordinates": [[[-1.551,47.209],[-1.549,47.209],[-1.549,47.211],[-1.551,47.211],[-1.551,47.209]]]
			}
		}]
	}`
	if err := os.WriteFile(filepath.Join(dir, "wetlands.json"), []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	zones, lines, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(zones) != 1 || len(lines) != 0 {
		t.Fatalf("zones=%d lines=%d", len(zones), len(lines))
	}
	if zones[0].PointCount != 5 {
		t.Errorf("point count=%d want 5", zones[0].PointCount)
	}

	s := New()
	s.Reload(zones, lines, nil)
	got, err := s.ZonesContaining(context.Background(), geo.Point{Lng: -1.55, Lat: 47.21},
		geostore.MapTypeWetland, geostore.CertaintyCertain)
	if err != nil || len(got) != 1 {
		t.Fatalf("ZonesContaining: %v %v", got, err)
	}
	if got[0].Attributes["code"] != "ZH-10" {
		t.Errorf("attributes lost: %+v", got[0].Attributes)
	}
}

func TestLoadDir_MissingDirectoryFails(t *testing.T) {
	if _, _, err := LoadDir(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
