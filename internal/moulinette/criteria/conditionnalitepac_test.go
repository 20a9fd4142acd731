package criteria

import (
	"context"
	"testing"

	"github.com/MTES-MCT/envergo/internal/confstore"
	"github.com/MTES-MCT/envergo/internal/geo"
	"github.com/MTES-MCT/envergo/internal/hedges"
	"github.com/MTES-MCT/envergo/internal/moulinette"
)

func TestBCAE8Code_DecisionTree(t *testing.T) {
	cases := []struct {
		name           string
		profil         string
		motif          string
		reimplantation string
		motifQC        string
		amenagementDUP string
		removed        float64
		isPetit        bool
		want           string
	}{
		{"not a PAC farmer", "autre", "autre", "non", "", "", 100, false, "non_soumis"},
		{"replacement", "agri_pac", "autre", "remplacement", "", "", 100, false, "soumis_remplacement"},
		{"small replacement", "agri_pac", "autre", "remplacement", "", "", 4, true, "non_soumis_petit"},
		{"compensated transfer", "agri_pac", "transfert_parcelles", "replantation", "", "", 100, false, "soumis_transfert_parcelles"},
		{"compensated better spot", "agri_pac", "meilleur_emplacement", "replantation", "", "", 100, false, "soumis_meilleur_emplacement"},
		{"small compensated", "agri_pac", "transfert_parcelles", "replantation", "", "", 4, true, "non_soumis_petit"},
		{"short access path", "agri_pac", "chemin_acces", "replantation", "", "", 10, false, "soumis_chemin_acces"},
		{"long access path", "agri_pac", "chemin_acces", "replantation", "", "", 11, false, "interdit_chemin_acces"},
		{"development with DUP", "agri_pac", "amenagement", "replantation", "", "oui", 100, false, "soumis_amenagement"},
		{"development without DUP", "agri_pac", "amenagement", "replantation", "", "non", 100, false, "interdit_amenagement"},
		{"other, no sanitary reason", "agri_pac", "autre", "replantation", "aucun", "", 100, false, "interdit_autre"},
		{"other, sanitary reason", "agri_pac", "autre", "replantation", "gestion_sanitaire", "", 100, false, "soumis_autre"},
		{"no replanting, access path", "agri_pac", "chemin_acces", "non", "", "", 10, false, "soumis_chemin_acces"},
		{"no replanting, transfer", "agri_pac", "transfert_parcelles", "non", "", "", 100, false, "interdit_transfert_parcelles"},
		{"no replanting, better spot", "agri_pac", "meilleur_emplacement", "non", "", "", 100, false, "interdit_meilleur_emplacement"},
		// the small removal exemption only softens replanted destructions
		{"no replanting, small transfer", "agri_pac", "transfert_parcelles", "non", "", "", 4, true, "interdit_transfert_parcelles"},
	}
	for _, c := range cases {
		got := bcae8Code(c.profil, c.motif, c.reimplantation, c.motifQC, c.amenagementDUP, c.removed, c.isPetit)
		if got != c.want {
			t.Errorf("%s: code = %s, want %s", c.name, got, c.want)
		}
	}
}

func TestBCAE8_SmallRemovalFromTotalLength(t *testing.T) {
	// 140 m removed out of a declared 10 000 m network: above 5 m but
	// under the 2% line
	hd := hedgeSet(t,
		northHedge(t, "h1", hedges.RoleToRemove, hedges.TypeBocagere, geo.Point{Lng: 0, Lat: 45}, 140, nil),
	)
	cat := testCatalog(nil, 0, moulinette.Params{
		"profil":         "agri_pac",
		"motif":          "transfert_parcelles",
		"reimplantation": "replantation",
		"lineaire_total": 10000.0,
	})
	cat.Hedges = hd

	out, err := newBCAE8().Evaluate(context.Background(), cat, confstore.Criterion{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if out.ResultCode != "non_soumis_petit" {
		t.Fatalf("code = %s, want non_soumis_petit", out.ResultCode)
	}
}

func TestBCAE8_SmallRemovalNeedsDeclaredTotal(t *testing.T) {
	evaluate := func(t *testing.T, meters float64, params moulinette.Params) string {
		t.Helper()
		params["profil"] = "agri_pac"
		params["motif"] = "autre"
		params["reimplantation"] = "remplacement"
		cat := testCatalog(nil, 0, params)
		cat.Hedges = hedgeSet(t,
			northHedge(t, "h1", hedges.RoleToRemove, hedges.TypeBocagere, geo.Point{Lng: 0, Lat: 45}, meters, nil),
		)
		out, err := newBCAE8().Evaluate(context.Background(), cat, confstore.Criterion{})
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		return out.ResultCode
	}

	// without a declared network length there is no exemption at all
	if got := evaluate(t, 4, moulinette.Params{}); got != "soumis_remplacement" {
		t.Errorf("no total, 4 m: code = %s, want soumis_remplacement", got)
	}
	// the short-removal branch is strictly under 5 m
	if got := evaluate(t, 5, moulinette.Params{"lineaire_total": 200.0}); got != "soumis_remplacement" {
		t.Errorf("5 m of 200 m: code = %s, want soumis_remplacement", got)
	}
	if got := evaluate(t, 4, moulinette.Params{"lineaire_total": 200.0}); got != "non_soumis_petit" {
		t.Errorf("4 m of 200 m: code = %s, want non_soumis_petit", got)
	}
}

func TestBCAE8_EnumMapping(t *testing.T) {
	ev := newBCAE8()
	if ev.ResultFor("interdit_chemin_acces") != moulinette.ResultInterdit {
		t.Fatalf("interdit_* codes must map to interdit")
	}
	if ev.ResultFor("soumis_autre") != moulinette.ResultSoumis {
		t.Fatalf("soumis_* codes must map to soumis")
	}
	if ev.ResultFor("non_soumis_petit") != moulinette.ResultNonSoumis {
		t.Fatalf("non_soumis_petit must map to non_soumis")
	}
}
