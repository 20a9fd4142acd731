package memstore

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MTES-MCT/envergo/internal/geo"
	"github.com/MTES-MCT/envergo/internal/geostore"
)

// mapDoc is the on-disk form of one reference map: metadata plus its zones
// or hedge lines, produced by the map import pipeline.
type mapDoc struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	MapType        string    `json:"map_type"`
	Certainty      string    `json:"certainty"`
	DisplayForUser bool      `json:"display_for_user"`
	Departments    []string  `json:"departments"`
	Source         string    `json:"source"`
	Zones          []zoneDoc `json:"zones"`
	Lines          []lineDoc `json:"lines"`
}

type zoneDoc struct {
	ID         int64             `json:"id"`
	AreaM2     float64           `json:"area_m2"`
	Taxons     []string          `json:"taxons,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Geometry   geo.Geometry      `json:"geometry"`
}

type lineDoc struct {
	ID       int64        `json:"id"`
	Geometry geo.Geometry `json:"geometry"`
}

// ParseMapDoc decodes one map document into store rows.
func ParseMapDoc(r io.Reader) ([]geostore.Zone, []geostore.Line, error) {
	var doc mapDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("decode map document: %w", err)
	}
	if doc.MapType == "" {
		return nil, nil, fmt.Errorf("map document %q: map_type is required", doc.Name)
	}

	m := &geostore.Map{
		ID:             doc.ID,
		Name:           doc.Name,
		Type:           geostore.MapType(doc.MapType),
		Certainty:      geostore.Certainty(doc.Certainty),
		Departments:    doc.Departments,
		DisplayForUser: doc.DisplayForUser,
		Source:         doc.Source,
	}
	if m.Certainty == "" {
		m.Certainty = geostore.CertaintyCertain
	}

	zones := make([]geostore.Zone, 0, len(doc.Zones))
	for _, z := range doc.Zones {
		mp, err := geo.ParseMultiPolygon(z.Geometry)
		if err != nil {
			return nil, nil, fmt.Errorf("map %q zone %d: %w", doc.Name, z.ID, err)
		}
		zones = append(zones, geostore.Zone{
			ID:         z.ID,
			Map:        m,
			Geometry:   mp,
			AreaM2:     z.AreaM2,
			PointCount: positionCount(z.Geometry),
			TaxonIDs:   z.Taxons,
			Attributes: z.Attributes,
		})
	}

	lines := make([]geostore.Line, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		ml, err := geo.ParseMultiLine(l.Geometry)
		if err != nil {
			return nil, nil, fmt.Errorf("map %q line %d: %w", doc.Name, l.ID, err)
		}
		lines = append(lines, geostore.Line{ID: l.ID, Map: m, Geometry: ml})
	}
	return zones, lines, nil
}

// LoadDir reads every *.json map document under dir.
func LoadDir(dir string) ([]geostore.Zone, []geostore.Line, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read map directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var zones []geostore.Zone
	var lines []geostore.Line
	for _, name := range names {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, nil, fmt.Errorf("open map document: %w", err)
		}
		zs, ls, perr := ParseMapDoc(f)
		_ = f.Close()
		if perr != nil {
			return nil, nil, fmt.Errorf("%s: %w", name, perr)
		}
		zones = append(zones, zs...)
		lines = append(lines, ls...)
	}
	return zones, lines, nil
}

// positionCount counts the coordinate pairs of a raw geometry.
func positionCount(g geo.Geometry) int {
	var v any
	if err := json.Unmarshal(g.Coordinates, &v); err != nil {
		return 0
	}
	return countPositions(v)
}

func countPositions(v any) int {
	arr, ok := v.([]any)
	if !ok || len(arr) == 0 {
		return 0
	}
	if _, leaf := arr[0].(float64); leaf {
		return 1
	}
	n := 0
	for _, el := range arr {
		n += countPositions(el)
	}
	return n
}
