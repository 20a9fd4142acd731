// Package hedges models a declared hedge project: the set of hedges the
// applicant removes and plants, with per-hedge type, geometry and boolean
// tags. A Data set is immutable once built; criteria and the plantation
// checks only read from it.
package hedges

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/MTES-MCT/envergo/internal/geo"
)

// Type is the hedge typology used by the destruction and plantation rules.
type Type string

const (
	TypeAlignement Type = "alignement"
	TypeBocagere   Type = "bocagere"
	TypeMixte      Type = "mixte"
	TypeArbustive  Type = "arbustive"
	TypeDegradee   Type = "degradee"
)

// Role says whether a hedge belongs to the removal or the plantation side
// of the project.
type Role string

const (
	RoleToRemove Role = "to_remove"
	RoleToPlant  Role = "to_plant"
)

// Per-hedge boolean tags read by the rules. The Attributes map carries
// whatever the form declares; only the tags below have an effect.
const (
	AttrOldTree        = "vieil_arbre"
	AttrNearPond       = "proximite_mare"
	AttrOnPAC          = "sur_parcelle_pac"
	AttrUnderPowerLine = "sous_ligne_electrique"
	AttrRoadSide       = "bord_voie"
	AttrNonBocageres   = "essences_non_bocageres"
)

// Destruction modes.
const (
	ModeCoupeABlanc = "coupe_a_blanc"
	ModeArrachage   = "arrachage"
)

// Hedge is one declared hedge segment.
type Hedge struct {
	ID              string
	Role            Role
	Type            Type
	Geometry        geo.Line
	Attributes      map[string]bool
	ModeDestruction string
	ModePlantation  string
}

// LengthM is the geodesic length of the hedge.
func (h Hedge) LengthM() float64 { return h.Geometry.LengthM() }

// Centroid is the length-weighted center of the hedge line.
func (h Hedge) Centroid() geo.Point { return h.Geometry.Centroid() }

// Is reports whether the given boolean tag is set.
func (h Hedge) Is(attr string) bool { return h.Attributes[attr] }

// Data is an immutable, ordered hedge set identified by a UUID.
type Data struct {
	id     uuid.UUID
	hedges []Hedge
}

// NewData validates and freezes a hedge set. Hedge ids must be unique:
// declaring the same hedge for removal and plantation is forbidden.
func NewData(id uuid.UUID, hs []Hedge) (*Data, error) {
	seen := make(map[string]struct{}, len(hs))
	for _, h := range hs {
		if h.ID == "" {
			return nil, fmt.Errorf("hedges: hedge without id")
		}
		if _, dup := seen[h.ID]; dup {
			return nil, fmt.Errorf("hedges: duplicate hedge id %q", h.ID)
		}
		seen[h.ID] = struct{}{}
		switch h.Role {
		case RoleToRemove, RoleToPlant:
		default:
			return nil, fmt.Errorf("hedges: hedge %q has no role", h.ID)
		}
	}
	return &Data{id: id, hedges: append([]Hedge(nil), hs...)}, nil
}

func (d *Data) ID() uuid.UUID { return d.id }

// EnsureID assigns a fresh id to a document posted without one.
func (d *Data) EnsureID() {
	if d.id == uuid.Nil {
		d.id = uuid.New()
	}
}

// Hedges returns a copy of the full ordered set.
func (d *Data) Hedges() []Hedge { return append([]Hedge(nil), d.hedges...) }

// ToRemove returns the hedges declared for removal, in declaration order.
func (d *Data) ToRemove() []Hedge { return d.byRole(RoleToRemove) }

// ToPlant returns the hedges declared for plantation, in declaration order.
func (d *Data) ToPlant() []Hedge { return d.byRole(RoleToPlant) }

func (d *Data) byRole(role Role) []Hedge {
	var out []Hedge
	for _, h := range d.hedges {
		if h.Role == role {
			out = append(out, h)
		}
	}
	return out
}

// LengthToRemove is the total removed length in meters, rounded.
func (d *Data) LengthToRemove() float64 { return roundM(sumLength(d.ToRemove())) }

// LengthToPlant is the total planted length in meters, rounded.
func (d *Data) LengthToPlant() float64 { return roundM(sumLength(d.ToPlant())) }

// CentroidToRemove is the length-weighted centroid of the removed hedges.
func (d *Data) CentroidToRemove() geo.Point {
	var ml geo.MultiLine
	for _, h := range d.ToRemove() {
		ml = append(ml, h.Geometry)
	}
	return ml.Centroid()
}

// IsRemovingOldTree reports whether any removed hedge hosts an old tree.
func (d *Data) IsRemovingOldTree() bool { return d.anyRemoved(AttrOldTree) }

// IsRemovingNearPond reports whether any removed hedge sits near a pond.
func (d *Data) IsRemovingNearPond() bool { return d.anyRemoved(AttrNearPond) }

func (d *Data) anyRemoved(attr string) bool {
	for _, h := range d.ToRemove() {
		if h.Is(attr) {
			return true
		}
	}
	return false
}

// LineaireDetruitPAC is the removed length counted against the PAC
// conditionality rules: hedges on a PAC parcel, tree alignments excluded.
func (d *Data) LineaireDetruitPAC() float64 {
	var total float64
	for _, h := range d.ToRemove() {
		if h.Is(AttrOnPAC) && h.Type != TypeAlignement {
			total += h.LengthM()
		}
	}
	return roundM(total)
}

func sumLength(hs []Hedge) float64 {
	var total float64
	for _, h := range hs {
		total += h.LengthM()
	}
	return total
}

func roundM(m float64) float64 { return math.Round(m) }
