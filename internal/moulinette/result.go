// Package moulinette is the regulatory evaluation engine. It resolves the
// department configuration, builds a per-request catalog of shared facts,
// runs every configured criterion evaluator and aggregates the outcomes
// per regulation and overall.
package moulinette

// Result is the regulatory outcome of a criterion, a regulation or a whole
// evaluation. Results are totally ordered; aggregation keeps the highest.
type Result string

const (
	ResultInterdit            Result = "interdit"
	ResultSoumisOuPAC         Result = "soumis_ou_pac"
	ResultSoumis              Result = "soumis"
	ResultActionRequise       Result = "action_requise"
	ResultAVerifier           Result = "a_verifier"
	ResultNonSoumis           Result = "non_soumis"
	ResultNonConcerne         Result = "non_concerne"
	ResultNonApplicable       Result = "non_applicable"
	ResultNonDisponible       Result = "non_disponible"
	ResultNonActive           Result = "non_active"
	ResultNonDisponibleAbsolu Result = "non_disponible_absolu"
)

// lowest to highest
var resultOrder = []Result{
	ResultNonDisponibleAbsolu,
	ResultNonActive,
	ResultNonDisponible,
	ResultNonApplicable,
	ResultNonConcerne,
	ResultNonSoumis,
	ResultAVerifier,
	ResultActionRequise,
	ResultSoumis,
	ResultSoumisOuPAC,
	ResultInterdit,
}

var resultRank = func() map[Result]int {
	m := make(map[Result]int, len(resultOrder))
	for i, r := range resultOrder {
		m[r] = i
	}
	return m
}()

// Rank gives the position in the aggregation order. Unknown values rank
// below everything.
func (r Result) Rank() int {
	if rank, ok := resultRank[r]; ok {
		return rank
	}
	return -1
}

// MaxResult returns the highest-ranked result, ResultNonDisponible when
// the list is empty.
func MaxResult(results ...Result) Result {
	max := ResultNonDisponible
	first := true
	for _, r := range results {
		if first || r.Rank() > max.Rank() {
			max = r
			first = false
		}
	}
	return max
}
