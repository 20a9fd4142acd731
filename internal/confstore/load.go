package confstore

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/MTES-MCT/envergo/internal/geo"
	"github.com/MTES-MCT/envergo/internal/geostore"
)

// On-disk form of one department configuration, one file per
// (department, kind). Dates are YYYY-MM-DD; an empty end leaves the
// range open.

type rangeDoc struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

type plantationDoc struct {
	ReplantationCoefficient float64 `json:"replantation_coefficient"`
	QualityFloor            float64 `json:"quality_floor"`
	ProximityRadiusM        float64 `json:"proximity_radius_m"`
}

type activationMapDoc struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name"`
	Geometry geo.Geometry `json:"geometry"`
}

type criterionDoc struct {
	ID                  int64             `json:"id"`
	Regulation          string            `json:"regulation"`
	Evaluator           string            `json:"evaluator"`
	Perimeter           string            `json:"perimeter,omitempty"`
	Settings            map[string]any    `json:"settings,omitempty"`
	Weight              int               `json:"weight"`
	Validity            *rangeDoc         `json:"validity,omitempty"`
	ActivationDistanceM float64           `json:"activation_distance_m,omitempty"`
	ActivationMap       *activationMapDoc `json:"activation_map,omitempty"`
}

type configDoc struct {
	Department     string            `json:"department"`
	Kind           string            `json:"kind"`
	Validity       rangeDoc          `json:"validity"`
	Activated      bool              `json:"activated"`
	Regulations    []string          `json:"regulations"`
	FormSchemas    []string          `json:"form_schemas,omitempty"`
	DemarcheNumber int               `json:"demarche_number,omitempty"`
	Plantation     *plantationDoc    `json:"plantation,omitempty"`
	Criteria       []criterionDoc    `json:"criteria"`
	Templates      map[string]string `json:"templates,omitempty"`
}

func parseRange(d rangeDoc) (DateRange, error) {
	var out DateRange
	if d.Start == "" {
		return out, fmt.Errorf("validity start is required")
	}
	start, err := time.Parse("2006-01-02", d.Start)
	if err != nil {
		return out, fmt.Errorf("validity start: %w", err)
	}
	out.Start = start
	if d.End != "" {
		end, err := time.Parse("2006-01-02", d.End)
		if err != nil {
			return out, fmt.Errorf("validity end: %w", err)
		}
		out.End = end
	}
	return out, nil
}

// LoadInto decodes one configuration document into the store and returns
// the criteria it added.
func LoadInto(s *Store, r io.Reader) ([]Criterion, error) {
	var doc configDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode config document: %w", err)
	}
	if doc.Department == "" {
		return nil, fmt.Errorf("department is required")
	}

	validity, err := parseRange(doc.Validity)
	if err != nil {
		return nil, fmt.Errorf("config %s/%s: %w", doc.Department, doc.Kind, err)
	}

	entry := ConfigEntry{
		Department:     doc.Department,
		Kind:           Kind(doc.Kind),
		Validity:       validity,
		Activated:      doc.Activated,
		Regulations:    doc.Regulations,
		FormSchemas:    doc.FormSchemas,
		DemarcheNumber: doc.DemarcheNumber,
	}
	if doc.Plantation != nil {
		entry.Plantation = PlantationRules{
			ReplantationCoefficient: doc.Plantation.ReplantationCoefficient,
			QualityFloor:            doc.Plantation.QualityFloor,
			ProximityRadiusM:        doc.Plantation.ProximityRadiusM,
		}
	}
	if err := s.AddConfig(entry); err != nil {
		return nil, err
	}

	crits := make([]Criterion, 0, len(doc.Criteria))
	for _, cd := range doc.Criteria {
		c := Criterion{
			ID:                  cd.ID,
			Department:          doc.Department,
			Regulation:          cd.Regulation,
			Evaluator:           cd.Evaluator,
			Perimeter:           cd.Perimeter,
			Settings:            Settings(cd.Settings),
			Weight:              cd.Weight,
			Validity:            validity,
			ActivationDistanceM: cd.ActivationDistanceM,
		}
		if cd.Validity != nil {
			cv, err := parseRange(*cd.Validity)
			if err != nil {
				return nil, fmt.Errorf("criterion %s/%s: %w", cd.Regulation, cd.Evaluator, err)
			}
			c.Validity = cv
		}
		if cd.ActivationMap != nil {
			mp, err := geo.ParseMultiPolygon(cd.ActivationMap.Geometry)
			if err != nil {
				return nil, fmt.Errorf("criterion %s/%s activation map: %w", cd.Regulation, cd.Evaluator, err)
			}
			c.ActivationMap = &geostore.Map{ID: cd.ActivationMap.ID, Name: cd.ActivationMap.Name}
			c.Activation = mp
		}
		if err := s.AddCriterion(c); err != nil {
			return nil, err
		}
		crits = append(crits, c)
	}

	for key, content := range doc.Templates {
		s.SetTemplate(key, content)
	}
	return crits, nil
}

// LoadDir builds a store from every *.json document under dir and returns
// it with the full criterion list for registry checking.
func LoadDir(dir string) (*Store, []Criterion, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read config directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	s := New()
	var crits []Criterion
	for _, name := range names {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, nil, fmt.Errorf("open config document: %w", err)
		}
		cs, lerr := LoadInto(s, f)
		_ = f.Close()
		if lerr != nil {
			return nil, nil, fmt.Errorf("%s: %w", name, lerr)
		}
		crits = append(crits, cs...)
	}
	return s, crits, nil
}
