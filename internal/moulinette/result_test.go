package moulinette

import "testing"

func TestRank_TotalOrder(t *testing.T) {
	// every adjacent pair in the published order must be strictly ordered
	for i := 1; i < len(resultOrder); i++ {
		lo, hi := resultOrder[i-1], resultOrder[i]
		if lo.Rank() >= hi.Rank() {
			t.Errorf("%s (%d) should rank below %s (%d)", lo, lo.Rank(), hi, hi.Rank())
		}
	}
	if ResultInterdit.Rank() != len(resultOrder)-1 {
		t.Errorf("interdit should be the top rank, got %d", ResultInterdit.Rank())
	}
}

func TestRank_UnknownValueGoesBelowEverything(t *testing.T) {
	if got := Result("gibberish").Rank(); got != -1 {
		t.Fatalf("Rank() = %d, want -1", got)
	}
	if got := MaxResult(Result("gibberish"), ResultNonDisponibleAbsolu); got != ResultNonDisponibleAbsolu {
		t.Fatalf("MaxResult = %q, want %q", got, ResultNonDisponibleAbsolu)
	}
}

func TestMaxResult(t *testing.T) {
	cases := []struct {
		name string
		in   []Result
		want Result
	}{
		{"empty defaults to non_disponible", nil, ResultNonDisponible},
		{"single", []Result{ResultNonSoumis}, ResultNonSoumis},
		{"keeps highest", []Result{ResultNonSoumis, ResultSoumis, ResultActionRequise}, ResultSoumis},
		{"interdit beats soumis_ou_pac", []Result{ResultSoumisOuPAC, ResultInterdit}, ResultInterdit},
		{"degraded inputs stay visible", []Result{ResultNonDisponibleAbsolu, ResultNonActive}, ResultNonActive},
	}
	for _, tc := range cases {
		if got := MaxResult(tc.in...); got != tc.want {
			t.Errorf("%s: MaxResult = %q, want %q", tc.name, got, tc.want)
		}
	}
}
