// Package ordering decides the order in which the conditions of a run were played.
package ordering

import (
	"sort"

	"github.com/chrissnell/eventtable/internal/types"
)

// Order returns the conditions sorted ascending by rank. Equal ranks keep the
// declared order LONG, SHORT, PASSIVE. Every declared condition must have a rank.
func Order(ranks map[types.Condition]float64) ([]types.Condition, error) {
	ordered := types.Conditions()
	for _, c := range ordered {
		if _, ok := ranks[c]; !ok {
			return nil, &types.MissingSourceError{
				Context: types.Context{Condition: c},
				What:    "condition rank",
			}
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return ranks[ordered[i]] < ranks[ordered[j]]
	})
	return ordered, nil
}
