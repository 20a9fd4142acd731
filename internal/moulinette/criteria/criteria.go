// Package criteria holds the criterion evaluators: one implementation per
// regulatory check, registered under the stable tag the configuration
// references (regulation dot slug). Evaluators are stateless; all
// request-scoped data comes from the catalog and the criterion binding.
package criteria

import (
	"sort"

	"github.com/MTES-MCT/envergo/internal/geostore"
	"github.com/MTES-MCT/envergo/internal/moulinette"
)

// All returns a registry with every evaluator bound.
func All() *moulinette.Registry {
	r := moulinette.NewRegistry()
	Register(r)
	return r
}

// Register binds every evaluator to its configuration tag.
func Register(r *moulinette.Registry) {
	// loi sur l'eau
	r.Register("loi_sur_leau.zone_humide", newWetlandImpact())
	r.Register("loi_sur_leau.zone_inondable", newFloodZoneImpact())
	r.Register("loi_sur_leau.ruissellement", newRunoff())
	r.Register("loi_sur_leau.ruissellement_bassin_versant", newRunoffCatchment())
	r.Register("loi_sur_leau.autres_rubriques", newOtherRubrics("Loi sur l'eau > Autres rubriques"))

	// natura 2000
	r.Register("natura2000.zone_humide", newN2000Wetland())
	r.Register("natura2000.zone_inondable", newN2000FloodZone())
	r.Register("natura2000.iota", newN2000IOTA())
	r.Register("natura2000.lotissement", newN2000Lotissement())
	r.Register("natura2000.autorisation_urba", newAutorisationUrba(false))
	r.Register("natura2000.autorisation_urba_exc_lotissement", newAutorisationUrba(true))

	// évaluation environnementale
	r.Register("eval_env.emprise", newEmprise())
	r.Register("eval_env.surface_plancher", newSurfacePlancher())
	r.Register("eval_env.terrain_assiette", newTerrainAssiette())
	r.Register("eval_env.route_publique", newRoutePublique())
	r.Register("eval_env.voie_privee", newVoiePrivee())
	r.Register("eval_env.piste_cyclable", newPisteCyclable())
	r.Register("eval_env.aire_de_stationnement", newAireDeStationnement())
	r.Register("eval_env.camping", newCamping())
	r.Register("eval_env.autres_rubriques", newOtherRubrics("Éval env > Autres rubriques"))

	// sage
	r.Register("sage.interdiction_impact_zh", newSageWetlandBan())
	r.Register("sage.interdiction_impact_zh_strict", newSageWetlandBanStrict())

	// haie
	r.Register("conditionnalite_pac.bcae8", newBCAE8())
	r.Register("especes_protegees.ep_simple", newEPSimple())
	r.Register("especes_protegees.ep_aisne", newEPAisne())
	r.Register("especes_protegees.ep_normandie", newEPNormandie())
	r.Register("alignement_arbres.alignement_arbres", newAlignementArbres())
	r.Register("natura2000_haie.natura2000_haie", newN2000Haie())
}

// base carries the static description every evaluator shares: identity,
// required request fields and the closed code-to-result mapping.
type base struct {
	slug     string
	label    string
	required []string
	results  map[string]moulinette.Result
}

func (b base) Slug() string  { return b.slug }
func (b base) Label() string { return b.label }

func (b base) RequiredFields() []string {
	return append([]string(nil), b.required...)
}

func (b base) ResultCodes() []string {
	codes := make([]string, 0, len(b.results))
	for c := range b.results {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

func (b base) ResultFor(code string) moulinette.Result {
	if r, ok := b.results[code]; ok {
		return r
	}
	return moulinette.ResultNonDisponible
}

// zonesMap builds the display map for a set of reference zones. Maps not
// flagged for display are kept out, matching what the data producers chose.
func zonesMap(caption string, zones []geostore.Zone, color string) *moulinette.CriterionMap {
	var polygons []moulinette.MapPolygon
	seen := make(map[string]struct{})
	var sources []string
	for _, z := range zones {
		if z.Map == nil || !z.Map.DisplayForUser {
			continue
		}
		polygons = append(polygons, moulinette.MapPolygon{
			Geometry: z.Geometry,
			Color:    color,
			Label:    z.Map.Name,
		})
		if z.Map.Source != "" {
			if _, dup := seen[z.Map.Source]; !dup {
				seen[z.Map.Source] = struct{}{}
				sources = append(sources, z.Map.Source)
			}
		}
	}
	if len(polygons) == 0 {
		return nil
	}
	return &moulinette.CriterionMap{Caption: caption, Polygons: polygons, Sources: sources}
}

// projectSize buckets a surface against the big and medium floors.
func projectSize(surface, big, medium float64) string {
	switch {
	case surface >= big:
		return "big"
	case surface >= medium:
		return "medium"
	default:
		return "small"
	}
}
