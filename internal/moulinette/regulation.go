package moulinette

import "strings"

// AggregationRule selects how a regulation folds its criterion results.
type AggregationRule string

const (
	// AggMax keeps the highest result, with non_concerne when no
	// criterion applies.
	AggMax AggregationRule = "max"
	// AggNatura2000 is AggMax floored at a_verifier as soon as one
	// criterion asks for a manual check.
	AggNatura2000 AggregationRule = "natura2000"
	// AggSage evaluates each perimeter instance independently, then keeps
	// the highest.
	AggSage AggregationRule = "sage"
	// AggPAC short-circuits to interdit on any forbidden destruction
	// reason code.
	AggPAC AggregationRule = "conditionnalite_pac"
)

// Regulation slugs.
const (
	RegLoiSurLEau         = "loi_sur_leau"
	RegNatura2000         = "natura2000"
	RegEvalEnv            = "eval_env"
	RegSage               = "sage"
	RegConditionnalitePAC = "conditionnalite_pac"
	RegEspecesProtegees   = "especes_protegees"
	RegAlignementArbres   = "alignement_arbres"
	RegNatura2000Haie     = "natura2000_haie"
)

var regulationRules = map[string]AggregationRule{
	RegLoiSurLEau:         AggMax,
	RegNatura2000:         AggNatura2000,
	RegEvalEnv:            AggMax,
	RegSage:               AggSage,
	RegConditionnalitePAC: AggPAC,
	RegEspecesProtegees:   AggMax,
	RegAlignementArbres:   AggMax,
	RegNatura2000Haie:     AggNatura2000,
}

// kindRegulations is the regulation roster reported when no configuration
// exists for a department.
var kindRegulations = map[string][]string{
	"amenagement": {RegLoiSurLEau, RegNatura2000, RegEvalEnv, RegSage},
	"haie":        {RegConditionnalitePAC, RegEspecesProtegees, RegAlignementArbres, RegNatura2000Haie},
}

func ruleFor(regulation string) AggregationRule {
	if rule, ok := regulationRules[regulation]; ok {
		return rule
	}
	return AggMax
}

func aggregate(rule AggregationRule, crits []CriterionResult) Result {
	switch rule {
	case AggNatura2000:
		base := aggregateMax(crits)
		for _, c := range crits {
			if c.Result == ResultAVerifier && base.Rank() < ResultAVerifier.Rank() {
				return ResultAVerifier
			}
		}
		return base
	case AggSage:
		return aggregateSage(crits)
	case AggPAC:
		for _, c := range crits {
			if strings.HasPrefix(c.ResultCode, "interdit") {
				return ResultInterdit
			}
		}
		return aggregateMax(crits)
	default:
		return aggregateMax(crits)
	}
}

func aggregateMax(crits []CriterionResult) Result {
	if len(crits) == 0 {
		return ResultNonDisponible
	}
	allOut := true
	results := make([]Result, 0, len(crits))
	for _, c := range crits {
		results = append(results, c.Result)
		if c.Result != ResultNonConcerne {
			allOut = false
		}
	}
	if allOut {
		return ResultNonConcerne
	}
	return MaxResult(results...)
}

// aggregateSage folds each perimeter instance on its own, then keeps the
// highest across perimeters.
func aggregateSage(crits []CriterionResult) Result {
	if len(crits) == 0 {
		return ResultNonDisponible
	}
	byPerimeter := make(map[string][]CriterionResult)
	var order []string
	for _, c := range crits {
		if _, seen := byPerimeter[c.Perimeter]; !seen {
			order = append(order, c.Perimeter)
		}
		byPerimeter[c.Perimeter] = append(byPerimeter[c.Perimeter], c)
	}
	results := make([]Result, 0, len(order))
	for _, p := range order {
		results = append(results, aggregateMax(byPerimeter[p]))
	}
	allOut := true
	for _, r := range results {
		if r != ResultNonConcerne {
			allOut = false
		}
	}
	if allOut {
		return ResultNonConcerne
	}
	return MaxResult(results...)
}
