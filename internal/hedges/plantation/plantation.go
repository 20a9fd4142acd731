// Package plantation checks whether a plantation plan compensates the
// declared hedge removal under the department rules: enough length, enough
// quality, close enough, like-for-like replacement of old trees and
// pond-side hedges, and no tall hedges planted under a power line.
package plantation

import (
	"encoding/json"
	"math"

	"github.com/MTES-MCT/envergo/internal/confstore"
	"github.com/MTES-MCT/envergo/internal/geo"
	"github.com/MTES-MCT/envergo/internal/hedges"
)

// Status of one check or of the whole plan.
type Status string

const (
	StatusAdequate      Status = "adequate"
	StatusInadequate    Status = "inadequate"
	StatusUnknown       Status = "unknown"
	StatusNotApplicable Status = "not_applicable"
)

// Check names.
const (
	CheckLength    = "length"
	CheckQuality   = "quality"
	CheckProximity = "proximity"
	CheckOldTree   = "old_tree"
	CheckPond      = "pond"
	CheckPowerLine = "power_line"
)

// CheckResult is one check's verdict with its computed figures.
type CheckResult struct {
	Name     string             `json:"name"`
	Status   Status             `json:"status"`
	Expected float64            `json:"expected,omitempty"`
	Actual   float64            `json:"actual,omitempty"`
	Details  map[string]float64 `json:"details,omitempty"`
}

// Result is the aggregated plantation verdict.
type Result struct {
	Result               Status        `json:"result"`
	Checks               []CheckResult `json:"checks"`
	MinimumLengthToPlant float64       `json:"minimum_length_to_plant"`
}

// ToJSON renders the result for the web layer.
func (r Result) ToJSON() ([]byte, error) { return json.Marshal(r) }

// Evaluator applies one department's plantation rules.
type Evaluator struct {
	rules confstore.PlantationRules
}

func New(rules confstore.PlantationRules) *Evaluator {
	return &Evaluator{rules: rules}
}

func (e *Evaluator) coefficient() float64 {
	if e.rules.ReplantationCoefficient > 0 {
		return e.rules.ReplantationCoefficient
	}
	return 1.0
}

// Evaluate runs all six checks over the hedge set. The plan is adequate
// only when every applicable check is; a single inadequate check condemns
// it; unknown checks leave the verdict open.
func (e *Evaluator) Evaluate(d *hedges.Data) Result {
	checks := []CheckResult{
		e.checkLength(d),
		e.checkQuality(d),
		e.checkProximity(d),
		e.checkOldTree(d),
		e.checkPond(d),
		e.checkPowerLine(d),
	}

	overall := StatusAdequate
	for _, c := range checks {
		switch c.Status {
		case StatusInadequate:
			overall = StatusInadequate
		case StatusUnknown:
			if overall != StatusInadequate {
				overall = StatusUnknown
			}
		}
	}

	return Result{
		Result:               overall,
		Checks:               checks,
		MinimumLengthToPlant: math.Round(e.coefficient() * d.LengthToRemove()),
	}
}

// checkLength requires length_to_plant >= coefficient * length_to_remove.
func (e *Evaluator) checkLength(d *hedges.Data) CheckResult {
	expected := math.Round(e.coefficient() * d.LengthToRemove())
	actual := d.LengthToPlant()
	status := StatusAdequate
	if actual < expected {
		status = StatusInadequate
	}
	return CheckResult{Name: CheckLength, Status: status, Expected: expected, Actual: actual}
}

func isQualityType(t hedges.Type) bool {
	return t == hedges.TypeBocagere || t == hedges.TypeMixte
}

func qualityShare(hs []hedges.Hedge) (share, total float64) {
	var quality float64
	for _, h := range hs {
		l := h.LengthM()
		total += l
		if isQualityType(h.Type) {
			quality += l
		}
	}
	if total == 0 {
		return 0, 0
	}
	return quality / total, total
}

// checkQuality requires the planted share of bocagere/mixte hedges to meet
// the removed share, floored by the department minimum.
func (e *Evaluator) checkQuality(d *hedges.Data) CheckResult {
	removedShare, removedTotal := qualityShare(d.ToRemove())
	plantedShare, plantedTotal := qualityShare(d.ToPlant())

	if removedTotal == 0 && plantedTotal == 0 {
		return CheckResult{Name: CheckQuality, Status: StatusNotApplicable}
	}

	required := math.Max(removedShare, e.rules.QualityFloor)
	status := StatusAdequate
	if plantedShare < required {
		status = StatusInadequate
	}
	return CheckResult{
		Name:     CheckQuality,
		Status:   status,
		Expected: required,
		Actual:   plantedShare,
		Details: map[string]float64{
			"removed_share": removedShare,
			"planted_share": plantedShare,
		},
	}
}

// checkProximity requires each removed hedge to have a planted hedge
// within the configured centroid radius. A zero radius disables the check.
func (e *Evaluator) checkProximity(d *hedges.Data) CheckResult {
	radius := e.rules.ProximityRadiusM
	removed := d.ToRemove()
	if radius <= 0 || len(removed) == 0 {
		return CheckResult{Name: CheckProximity, Status: StatusNotApplicable}
	}

	planted := d.ToPlant()
	var unmatched float64
	for _, r := range removed {
		rc := r.Centroid()
		matched := false
		for _, p := range planted {
			if geo.DistanceM(rc, p.Centroid()) <= radius {
				matched = true
				break
			}
		}
		if !matched {
			unmatched++
		}
	}

	status := StatusAdequate
	if unmatched > 0 {
		status = StatusInadequate
	}
	return CheckResult{
		Name:     CheckProximity,
		Status:   status,
		Expected: radius,
		Actual:   unmatched,
		Details:  map[string]float64{"unmatched_hedges": unmatched},
	}
}

// checkOldTree requires removed old-tree hedges to be replaced by tree
// alignments of at least equal length.
func (e *Evaluator) checkOldTree(d *hedges.Data) CheckResult {
	var removedLen float64
	for _, h := range d.ToRemove() {
		if h.Is(hedges.AttrOldTree) {
			removedLen += h.LengthM()
		}
	}
	if removedLen == 0 {
		return CheckResult{Name: CheckOldTree, Status: StatusNotApplicable}
	}

	var plantedLen float64
	for _, h := range d.ToPlant() {
		if h.Type == hedges.TypeAlignement {
			plantedLen += h.LengthM()
		}
	}

	status := StatusAdequate
	if plantedLen < removedLen {
		status = StatusInadequate
	}
	return CheckResult{
		Name:     CheckOldTree,
		Status:   status,
		Expected: math.Round(removedLen),
		Actual:   math.Round(plantedLen),
	}
}

// checkPowerLine forbids planting high-growing hedges (alignement or
// mixte) under a power line.
func (e *Evaluator) checkPowerLine(d *hedges.Data) CheckResult {
	var offending float64
	for _, h := range d.ToPlant() {
		if (h.Type == hedges.TypeAlignement || h.Type == hedges.TypeMixte) && h.Is(hedges.AttrUnderPowerLine) {
			offending++
		}
	}

	status := StatusAdequate
	if offending > 0 {
		status = StatusInadequate
	}
	return CheckResult{
		Name:    CheckPowerLine,
		Status:  status,
		Actual:  offending,
		Details: map[string]float64{"offending_hedges": offending},
	}
}

// checkPond requires pond-side removals to be compensated by pond-side
// plantations of at least equal length.
func (e *Evaluator) checkPond(d *hedges.Data) CheckResult {
	var removedLen float64
	for _, h := range d.ToRemove() {
		if h.Is(hedges.AttrNearPond) {
			removedLen += h.LengthM()
		}
	}
	if removedLen == 0 {
		return CheckResult{Name: CheckPond, Status: StatusNotApplicable}
	}

	var plantedLen float64
	for _, h := range d.ToPlant() {
		if h.Is(hedges.AttrNearPond) {
			plantedLen += h.LengthM()
		}
	}

	status := StatusAdequate
	if plantedLen < removedLen {
		status = StatusInadequate
	}
	return CheckResult{
		Name:     CheckPond,
		Status:   status,
		Expected: math.Round(removedLen),
		Actual:   math.Round(plantedLen),
	}
}
