package diff

import (
	"sort"

	"github.com/drrnair/dictatemed-mvp-sub000/internal/letter"
)

// Align pairs sections between a draft and final parse of the same letter.
// Matching is greedy one-to-one by exact type equality, walking final sections
// in order and consuming each draft candidate at most once. Leftover draft
// sections become removed pairs, leftover final sections become added pairs.
// The result is sorted back into document order (draft position preferred,
// falling back to final position).
//
// Known limitation: when a type occurs more than once, instances are matched
// in first-available order only, with no content-aware disambiguation.
func Align(draft, final []letter.Section) []AlignedPair {
	used := make([]bool, len(draft))
	matchedFinal := make([]bool, len(final))

	var pairs []AlignedPair
	for fi := range final {
		for di := range draft {
			if used[di] || draft[di].Type != final[fi].Type {
				continue
			}
			used[di] = true
			matchedFinal[fi] = true
			pairs = append(pairs, AlignedPair{Draft: &draft[di], Final: &final[fi]})
			break
		}
	}

	for di := range draft {
		if !used[di] {
			pairs = append(pairs, AlignedPair{Draft: &draft[di]})
		}
	}
	for fi := range final {
		if !matchedFinal[fi] {
			pairs = append(pairs, AlignedPair{Final: &final[fi]})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		return pairPosition(pairs[i]) < pairPosition(pairs[j])
	})
	return pairs
}

func pairPosition(p AlignedPair) int {
	if p.Draft != nil {
		return p.Draft.StartOffset
	}
	return p.Final.StartOffset
}
