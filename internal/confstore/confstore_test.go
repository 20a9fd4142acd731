package confstore

import (
	"context"
	"testing"
	"time"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestAddConfig_RejectsEmptyRange(t *testing.T) {
	s := New()
	err := s.AddConfig(ConfigEntry{
		Department: "44",
		Kind:       KindAmenagement,
		Validity:   DateRange{Start: day(2024, 1, 1), End: day(2024, 1, 1)},
	})
	if err == nil {
		t.Fatalf("expected rejection of an empty validity range")
	}
}

func TestAddConfig_RejectsOverlap(t *testing.T) {
	s := New()
	if err := s.AddConfig(ConfigEntry{
		Department: "44",
		Kind:       KindAmenagement,
		Validity:   DateRange{Start: day(2024, 1, 1), End: day(2025, 1, 1)},
	}); err != nil {
		t.Fatalf("AddConfig: %v", err)
	}
	err := s.AddConfig(ConfigEntry{
		Department: "44",
		Kind:       KindAmenagement,
		Validity:   DateRange{Start: day(2024, 6, 1)},
	})
	if err == nil {
		t.Fatalf("expected rejection of an overlapping range")
	}

	// same department, different kind is fine
	if err := s.AddConfig(ConfigEntry{
		Department: "44",
		Kind:       KindHaie,
		Validity:   DateRange{Start: day(2024, 6, 1)},
	}); err != nil {
		t.Fatalf("AddConfig for other kind: %v", err)
	}
}

func TestGetConfig_CoversDate(t *testing.T) {
	s := New()
	if err := s.AddConfig(ConfigEntry{
		Department:  "44",
		Kind:        KindAmenagement,
		Validity:    DateRange{Start: day(2024, 1, 1), End: day(2025, 1, 1)},
		Regulations: []string{"loi_sur_leau"},
	}); err != nil {
		t.Fatalf("AddConfig: %v", err)
	}
	if err := s.AddConfig(ConfigEntry{
		Department:  "44",
		Kind:        KindAmenagement,
		Validity:    DateRange{Start: day(2025, 1, 1)},
		Regulations: []string{"loi_sur_leau", "natura2000"},
	}); err != nil {
		t.Fatalf("AddConfig: %v", err)
	}

	ctx := context.Background()
	e, err := s.GetConfig(ctx, "44", KindAmenagement, day(2024, 7, 1))
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if e == nil || len(e.Regulations) != 1 {
		t.Fatalf("got %+v, want the 2024 entry", e)
	}

	e, err = s.GetConfig(ctx, "44", KindAmenagement, day(2026, 3, 1))
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if e == nil || len(e.Regulations) != 2 {
		t.Fatalf("got %+v, want the open-ended entry", e)
	}

	e, err = s.GetConfig(ctx, "44", KindAmenagement, day(2023, 1, 1))
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if e != nil {
		t.Fatalf("got %+v before any validity range, want nil", e)
	}

	e, err = s.GetConfig(ctx, "29", KindAmenagement, day(2024, 7, 1))
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if e != nil {
		t.Fatalf("got %+v for an unconfigured department, want nil", e)
	}
}

func TestAddCriterion_RejectsOverlapSameBinding(t *testing.T) {
	s := New()
	base := Criterion{
		Department: "44",
		Regulation: "loi_sur_leau",
		Evaluator:  "loi_sur_leau.zone_humide",
		Validity:   DateRange{Start: day(2024, 1, 1)},
	}
	if err := s.AddCriterion(base); err != nil {
		t.Fatalf("AddCriterion: %v", err)
	}
	if err := s.AddCriterion(base); err == nil {
		t.Fatalf("expected rejection of an overlapping criterion")
	}

	// distinct perimeter instances may coexist
	p1, p2 := base, base
	p1.Regulation, p2.Regulation = "sage", "sage"
	p1.Evaluator, p2.Evaluator = "sage.interdiction_impact_zh", "sage.interdiction_impact_zh"
	p1.Perimeter, p2.Perimeter = "sage-vilaine", "sage-estuaire"
	if err := s.AddCriterion(p1); err != nil {
		t.Fatalf("AddCriterion perimeter 1: %v", err)
	}
	if err := s.AddCriterion(p2); err != nil {
		t.Fatalf("AddCriterion perimeter 2: %v", err)
	}
}

func TestListCriteria_OrderedByWeightThenTag(t *testing.T) {
	s := New()
	add := func(evaluator string, weight int) {
		t.Helper()
		err := s.AddCriterion(Criterion{
			Department: "44",
			Regulation: "loi_sur_leau",
			Evaluator:  evaluator,
			Weight:     weight,
			Validity:   DateRange{Start: day(2024, 1, 1)},
		})
		if err != nil {
			t.Fatalf("AddCriterion %s: %v", evaluator, err)
		}
	}
	add("loi_sur_leau.ruissellement", 3)
	add("loi_sur_leau.zone_inondable", 2)
	add("loi_sur_leau.zone_humide", 1)
	add("loi_sur_leau.autres_rubriques", 1)

	crits, err := s.ListCriteria(context.Background(), "loi_sur_leau", "44", day(2024, 7, 1))
	if err != nil {
		t.Fatalf("ListCriteria: %v", err)
	}
	want := []string{
		"loi_sur_leau.autres_rubriques",
		"loi_sur_leau.zone_humide",
		"loi_sur_leau.zone_inondable",
		"loi_sur_leau.ruissellement",
	}
	if len(crits) != len(want) {
		t.Fatalf("got %d criteria, want %d", len(crits), len(want))
	}
	for i, w := range want {
		if crits[i].Evaluator != w {
			t.Fatalf("position %d: got %s, want %s", i, crits[i].Evaluator, w)
		}
	}
}

func TestListCriteria_FiltersByDate(t *testing.T) {
	s := New()
	if err := s.AddCriterion(Criterion{
		Department: "44",
		Regulation: "loi_sur_leau",
		Evaluator:  "loi_sur_leau.zone_humide",
		Validity:   DateRange{Start: day(2024, 1, 1), End: day(2025, 1, 1)},
	}); err != nil {
		t.Fatalf("AddCriterion: %v", err)
	}

	crits, err := s.ListCriteria(context.Background(), "loi_sur_leau", "44", day(2025, 6, 1))
	if err != nil {
		t.Fatalf("ListCriteria: %v", err)
	}
	if len(crits) != 0 {
		t.Fatalf("got %d criteria after the validity range, want 0", len(crits))
	}
}

func TestTemplate_Lookup(t *testing.T) {
	s := New()
	s.SetTemplate("loi_sur_leau/soumis.html", "<p>dossier requis</p>")

	content, ok, err := s.Template(context.Background(), "loi_sur_leau/soumis.html")
	if err != nil {
		t.Fatalf("Template: %v", err)
	}
	if !ok || content != "<p>dossier requis</p>" {
		t.Fatalf("got (%q, %v)", content, ok)
	}
	if _, ok, _ := s.Template(context.Background(), "loi_sur_leau/interdit.html"); ok {
		t.Fatalf("unexpected template hit")
	}
}
