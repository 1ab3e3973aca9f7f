package analysis

import (
	"sort"

	"charge-optimizer/internal/model"
)

type RankedStrategy struct {
	Strategy model.ChargingStrategy
	Summary
}

// RankByBenefit sorts strategy summaries by descending benefit, then by
// ascending peak import.
func RankByBenefit(byStrategy map[model.ChargingStrategy]Summary) []RankedStrategy {
	out := make([]RankedStrategy, 0, len(byStrategy))
	for name, s := range byStrategy {
		out = append(out, RankedStrategy{Strategy: name, Summary: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Benefit != out[j].Benefit {
			return out[i].Benefit > out[j].Benefit
		}
		if out[i].PeakImport != out[j].PeakImport {
			return out[i].PeakImport < out[j].PeakImport
		}
		return out[i].Strategy < out[j].Strategy
	})
	return out
}
