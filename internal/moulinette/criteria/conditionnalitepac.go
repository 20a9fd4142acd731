package criteria

import (
	"context"

	"github.com/MTES-MCT/envergo/internal/confstore"
	"github.com/MTES-MCT/envergo/internal/moulinette"
)

// bcae8 is the PAC conditionality check on hedge destruction (BCAE 8).
// The outcome is a decision tree on the farmer profile, the destruction
// reason and the replanting intention, not a plain matrix: the small
// removal exemption and the per-reason escape hatches interleave.
type bcae8 struct{ base }

func newBCAE8() *bcae8 {
	return &bcae8{base{
		slug:     "bcae8",
		label:    "Conditionnalité PAC > BCAE 8",
		required: []string{"profil", "motif", "reimplantation"},
		results: map[string]moulinette.Result{
			"non_soumis":                    moulinette.ResultNonSoumis,
			"non_soumis_petit":              moulinette.ResultNonSoumis,
			"soumis_remplacement":           moulinette.ResultSoumis,
			"soumis_transfert_parcelles":    moulinette.ResultSoumis,
			"soumis_meilleur_emplacement":   moulinette.ResultSoumis,
			"soumis_chemin_acces":           moulinette.ResultSoumis,
			"soumis_amenagement":            moulinette.ResultSoumis,
			"soumis_autre":                  moulinette.ResultSoumis,
			"interdit_transfert_parcelles":  moulinette.ResultInterdit,
			"interdit_meilleur_emplacement": moulinette.ResultInterdit,
			"interdit_chemin_acces":         moulinette.ResultInterdit,
			"interdit_amenagement":          moulinette.ResultInterdit,
			"interdit_autre":                moulinette.ResultInterdit,
		},
	}}
}

func (e *bcae8) Evaluate(ctx context.Context, cat *moulinette.Catalog, crit confstore.Criterion) (moulinette.Evaluation, error) {
	hd, err := cat.HedgeData()
	if err != nil {
		return moulinette.Evaluation{}, err
	}

	profil, _ := cat.Params.String("profil")
	motif, _ := cat.Params.String("motif")
	reimplantation, _ := cat.Params.String("reimplantation")
	motifQC, _ := cat.Params.String("motif_qc")
	amenagementDUP, _ := cat.Params.String("amenagement_dup")

	// the small removal exemption needs the declared total linear to
	// qualify: without it a 4 m removal still counts as a real one
	removed := hd.LengthToRemove()
	isPetit := false
	if total, ok := cat.Params.Float("lineaire_total"); ok && total > 0 && removed > 0 {
		isPetit = removed < 5 || removed <= 0.02*total
	}

	code := bcae8Code(profil, motif, reimplantation, motifQC, amenagementDUP, removed, isPetit)

	return moulinette.Evaluation{
		ResultCode: code,
		Catalog: map[string]any{
			"lineaire_detruit": removed,
			"is_petit":         isPetit,
		},
	}, nil
}

func bcae8Code(profil, motif, reimplantation, motifQC, amenagementDUP string, removed float64, isPetit bool) string {
	if profil != "agri_pac" {
		return "non_soumis"
	}

	switch reimplantation {
	case "remplacement":
		if isPetit {
			return "non_soumis_petit"
		}
		return "soumis_remplacement"

	case "replantation", "compensation":
		if isPetit {
			return "non_soumis_petit"
		}
		switch motif {
		case "transfert_parcelles":
			return "soumis_transfert_parcelles"
		case "meilleur_emplacement":
			return "soumis_meilleur_emplacement"
		case "chemin_acces":
			if removed <= 10 {
				return "soumis_chemin_acces"
			}
			return "interdit_chemin_acces"
		case "amenagement":
			if amenagementDUP == "oui" {
				return "soumis_amenagement"
			}
			return "interdit_amenagement"
		default: // motif=autre
			if motifQC == "aucun" {
				return "interdit_autre"
			}
			return "soumis_autre"
		}

	default: // reimplantation=non, no small removal exemption
		switch motif {
		case "chemin_acces":
			if removed <= 10 {
				return "soumis_chemin_acces"
			}
			return "interdit_chemin_acces"
		case "amenagement":
			if amenagementDUP == "oui" {
				return "soumis_amenagement"
			}
			return "interdit_amenagement"
		case "autre":
			if motifQC == "aucun" {
				return "interdit_autre"
			}
			return "soumis_autre"
		case "meilleur_emplacement":
			return "interdit_meilleur_emplacement"
		default: // motif=transfert_parcelles
			return "interdit_transfert_parcelles"
		}
	}
}
