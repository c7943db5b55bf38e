package reconcile

import "github.com/okian/drainwatch/internal/domain/model"

// Facts are the per-ticket observations the classification rules read.
type Facts struct {
	MatchedCount       int
	MatchedSignificant bool
	IsDuplicate        bool
	IsOutlier          bool
}

// Rule assigns Status when Applies holds.
type Rule struct {
	Status  model.Status
	Applies func(Facts) bool
}

// rules is evaluated in order and the first applicable rule wins. The order
// is the documented tie-break: a significant match beats duplicate, which
// beats outlier, which beats having no match at all.
var rules = []Rule{
	{Status: model.StatusValid, Applies: func(f Facts) bool { return f.MatchedSignificant }},
	{Status: model.StatusDuplicate, Applies: func(f Facts) bool { return f.IsDuplicate }},
	{Status: model.StatusOutlier, Applies: func(f Facts) bool { return f.IsOutlier }},
	{Status: model.StatusSuspicious, Applies: func(f Facts) bool { return f.MatchedCount == 0 }},
	{Status: model.StatusNeedsReview, Applies: func(Facts) bool { return true }},
}

// Rules returns a copy of the classification rules in precedence order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Classify returns the status of the first rule that applies to f.
func Classify(f Facts) model.Status {
	for _, r := range rules {
		if r.Applies(f) {
			return r.Status
		}
	}
	return model.StatusNeedsReview
}
