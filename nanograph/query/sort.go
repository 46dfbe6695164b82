package query

import (
	"sort"

	"github.com/arthur-debert/nanograph/types"
)

// sortRecords sorts records according to the order clauses
func sortRecords(records types.Collection, orderBy []OrderClause) {
	sort.SliceStable(records, func(i, j int) bool {
		for _, clause := range orderBy {
			c := types.Compare(records[i].Get(clause.Field), records[j].Get(clause.Field))
			if c == 0 {
				// Equal, continue to next order clause
				continue
			}
			if clause.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}
