package diff

import (
	"sort"

	"github.com/drrnair/dictatemed-mvp-sub000/internal/letter"
)

// modificationThreshold is the minimum LCS similarity for two unequal
// sentences to be reported as a modification rather than a delete/add pair.
const modificationThreshold = 0.5

// Section compares one aligned draft/final pair and reports sentence-level
// changes. A missing side short-circuits to a single whole-section
// addition/deletion; equal normalized content reports unchanged.
func Section(pair AlignedPair) SectionDiff {
	switch {
	case pair.Draft == nil && pair.Final == nil:
		return SectionDiff{Status: StatusUnchanged}
	case pair.Draft == nil:
		content := pair.Final.Content
		return SectionDiff{
			SectionType:  pair.Final.Type,
			FinalContent: content,
			Status:       StatusAdded,
			Changes: []Change{{
				Kind:      ChangeAddition,
				Modified:  content,
				CharDelta: len(content),
				WordDelta: WordCount(content),
			}},
			TotalCharDelta: len(content),
			TotalWordDelta: WordCount(content),
		}
	case pair.Final == nil:
		content := pair.Draft.Content
		return SectionDiff{
			SectionType:  pair.Draft.Type,
			DraftContent: content,
			Status:       StatusRemoved,
			Changes: []Change{{
				Kind:      ChangeDeletion,
				Original:  content,
				CharDelta: -len(content),
				WordDelta: -WordCount(content),
			}},
			TotalCharDelta: -len(content),
			TotalWordDelta: -WordCount(content),
		}
	}

	d := SectionDiff{
		SectionType:  pair.Final.Type,
		DraftContent: pair.Draft.Content,
		FinalContent: pair.Final.Content,
	}

	if Normalize(pair.Draft.Content) == Normalize(pair.Final.Content) {
		d.Status = StatusUnchanged
		return d
	}

	d.Status = StatusModified
	d.Changes = sentenceChanges(pair.Draft.Content, pair.Final.Content)
	for _, c := range d.Changes {
		d.TotalCharDelta += c.CharDelta
		d.TotalWordDelta += c.WordDelta
	}
	return d
}

// All aligns two parses and diffs every pair, preserving document order.
func All(draft, final []letter.Section) []SectionDiff {
	pairs := Align(draft, final)
	out := make([]SectionDiff, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, Section(p))
	}
	return out
}

func sentenceChanges(draft, final string) []Change {
	draftSents := splitSentences(draft)
	finalSents := splitSentences(final)

	draftMatched := make([]bool, len(draftSents))
	finalMatched := make([]bool, len(finalSents))

	// Pass 1: exact normalized duplicates.
	finalByNorm := make(map[string][]int, len(finalSents))
	for i, s := range finalSents {
		finalByNorm[s.norm] = append(finalByNorm[s.norm], i)
	}
	for di, s := range draftSents {
		queue := finalByNorm[s.norm]
		for len(queue) > 0 && finalMatched[queue[0]] {
			queue = queue[1:]
		}
		if len(queue) > 0 {
			finalMatched[queue[0]] = true
			draftMatched[di] = true
			finalByNorm[s.norm] = queue[1:]
		}
	}

	var changes []Change

	// Pass 2: near-duplicates become modifications.
	for di, ds := range draftSents {
		if draftMatched[di] {
			continue
		}
		bestIdx, bestSim := -1, 0.0
		for fi, fs := range finalSents {
			if finalMatched[fi] {
				continue
			}
			if sim := Similarity(ds.norm, fs.norm); sim > bestSim {
				bestIdx, bestSim = fi, sim
			}
		}
		if bestIdx >= 0 && bestSim > modificationThreshold {
			fs := finalSents[bestIdx]
			draftMatched[di] = true
			finalMatched[bestIdx] = true
			changes = append(changes, Change{
				Kind:      ChangeModification,
				Original:  ds.text,
				Modified:  fs.text,
				CharDelta: len(fs.text) - len(ds.text),
				WordDelta: WordCount(fs.text) - WordCount(ds.text),
				Position:  ds.offset,
			})
		}
	}

	// A single leftover sentence on each side is an in-place rewrite, even
	// when the similarity gate rejected the pairing. The gate still decides
	// pairing whenever more than one candidate remains on either side.
	if di, fi := soleUnmatched(draftMatched), soleUnmatched(finalMatched); di >= 0 && fi >= 0 {
		ds, fs := draftSents[di], finalSents[fi]
		draftMatched[di] = true
		finalMatched[fi] = true
		changes = append(changes, Change{
			Kind:      ChangeModification,
			Original:  ds.text,
			Modified:  fs.text,
			CharDelta: len(fs.text) - len(ds.text),
			WordDelta: WordCount(fs.text) - WordCount(ds.text),
			Position:  ds.offset,
		})
	}

	// Pass 3: whatever remains is a deletion or addition.
	for di, ds := range draftSents {
		if draftMatched[di] {
			continue
		}
		changes = append(changes, Change{
			Kind:      ChangeDeletion,
			Original:  ds.text,
			CharDelta: -len(ds.text),
			WordDelta: -WordCount(ds.text),
			Position:  ds.offset,
		})
	}
	for fi, fs := range finalSents {
		if finalMatched[fi] {
			continue
		}
		changes = append(changes, Change{
			Kind:      ChangeAddition,
			Modified:  fs.text,
			CharDelta: len(fs.text),
			WordDelta: WordCount(fs.text),
			Position:  fs.offset,
		})
	}

	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Position < changes[j].Position
	})
	return changes
}

// soleUnmatched returns the index of the only false entry, or -1 when there
// are zero or several.
func soleUnmatched(matched []bool) int {
	idx := -1
	for i, m := range matched {
		if m {
			continue
		}
		if idx >= 0 {
			return -1
		}
		idx = i
	}
	return idx
}
