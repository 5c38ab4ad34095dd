package melsec

import (
	"fmt"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"pgregory.net/rapid"
)

// TestPlanPartition checks that planning is a true partition: every tag
// lands in exactly one batch, batches are unit-homogeneous and no batch
// exceeds its unit's point ceiling.
func TestPlanPartition(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 3000).Draw(t, "n")
		tags := make([]QueryTag, n)
		for i := range tags {
			switch rapid.IntRange(0, 3).Draw(t, fmt.Sprintf("kind%d", i)) {
			case 0:
				tags[i] = QueryTag{Device: fmt.Sprintf("M%d", i), Type: Bit}
			case 1:
				tags[i] = QueryTag{Device: fmt.Sprintf("D%d", i), Type: Word}
			case 2:
				tags[i] = QueryTag{Device: fmt.Sprintf("D%d", 2*i), Type: DWord}
			default:
				tags[i] = QueryTag{Device: fmt.Sprintf("D%d", 4*i), Type: LWord}
			}
		}

		batches, err := plan(tags)
		if err != nil {
			t.Fatalf("error while planning: %+v", err)
		}

		var seen []int
		for _, b := range batches {
			if b.points() > ceiling(b.Unit) {
				t.Fatalf("batch holds %d points, ceiling is %d", b.points(), ceiling(b.Unit))
			}
			for _, e := range b.Entries {
				if e.Tag.Type.Unit() != b.Unit {
					t.Fatalf("tag %v in a %s batch", e.Tag, b.Unit)
				}
				if !cmp.Equal(e.Tag, tags[e.Index]) {
					t.Fatalf("entry %d does not match its tag: %s", e.Index, cmp.Diff(tags[e.Index], e.Tag))
				}
				seen = append(seen, e.Index)
			}
		}

		sort.Ints(seen)
		for i, idx := range seen {
			if i != idx {
				t.Fatalf("tag indices are not a permutation of the request: %v", seen)
			}
		}
		if len(seen) != n {
			t.Fatalf("planned %d tags, requested %d", len(seen), n)
		}
	})
}
