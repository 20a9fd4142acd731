package hedges

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/MTES-MCT/envergo/internal/geo"
)

// Wire format: hedge geometries travel as [lng, lat] coordinate pairs, the
// same shape the map widget produces.

type hedgeDoc struct {
	ID              string          `json:"id"`
	Role            Role            `json:"role"`
	Type            Type            `json:"type"`
	Geometry        [][2]float64    `json:"geometry"`
	Attributes      map[string]bool `json:"attributes,omitempty"`
	ModeDestruction string          `json:"mode_destruction,omitempty"`
	ModePlantation  string          `json:"mode_plantation,omitempty"`
}

type dataDoc struct {
	ID     uuid.UUID  `json:"id"`
	Hedges []hedgeDoc `json:"hedges"`
}

func (d *Data) MarshalJSON() ([]byte, error) {
	doc := dataDoc{ID: d.id, Hedges: make([]hedgeDoc, 0, len(d.hedges))}
	for _, h := range d.hedges {
		coords := make([][2]float64, len(h.Geometry))
		for i, p := range h.Geometry {
			coords[i] = [2]float64{p.Lng, p.Lat}
		}
		doc.Hedges = append(doc.Hedges, hedgeDoc{
			ID:              h.ID,
			Role:            h.Role,
			Type:            h.Type,
			Geometry:        coords,
			Attributes:      h.Attributes,
			ModeDestruction: h.ModeDestruction,
			ModePlantation:  h.ModePlantation,
		})
	}
	return json.Marshal(doc)
}

func (d *Data) UnmarshalJSON(b []byte) error {
	var doc dataDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("hedges: decode: %w", err)
	}
	hs := make([]Hedge, 0, len(doc.Hedges))
	for _, hd := range doc.Hedges {
		line := make(geo.Line, len(hd.Geometry))
		for i, c := range hd.Geometry {
			line[i] = geo.Point{Lng: c[0], Lat: c[1]}
		}
		hs = append(hs, Hedge{
			ID:              hd.ID,
			Role:            hd.Role,
			Type:            hd.Type,
			Geometry:        line,
			Attributes:      hd.Attributes,
			ModeDestruction: hd.ModeDestruction,
			ModePlantation:  hd.ModePlantation,
		})
	}
	built, err := NewData(doc.ID, hs)
	if err != nil {
		return err
	}
	*d = *built
	return nil
}
