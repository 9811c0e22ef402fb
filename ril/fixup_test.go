package ril

import (
	"testing"

	linq "github.com/ahmetb/go-linq/v3"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func calls(cids ...int) []DataCall {
	out := make([]DataCall, len(cids))
	for i, cid := range cids {
		out[i] = DataCall{CID: cid, APN: "apn"}
	}
	return out
}

func cidsOf(dc []DataCall) []int {
	var out []int
	linq.From(dc).SelectT(func(c DataCall) int { return c.CID }).ToSlice(&out)
	return out
}

func TestFixDuplicateCIDsOne(t *testing.T) {
	list := calls(1, 1)
	FixDuplicateCIDs(list)
	assert.Equal(t, []int{1, 0}, cidsOf(list))

	list = calls(2, 1, 3, 1)
	FixDuplicateCIDs(list)
	assert.Equal(t, []int{2, 1, 3, 0}, cidsOf(list))
}

func TestFixDuplicateCIDsLeavesUniqueAlone(t *testing.T) {
	list := calls(1, 2, 3)
	FixDuplicateCIDs(list)
	assert.Equal(t, []int{1, 2, 3}, cidsOf(list))
}

func TestFixDuplicateCIDsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		orig := rapid.SliceOfN(rapid.IntRange(0, 4), 0, 6).Draw(t, "cids")
		list := calls(orig...)
		FixDuplicateCIDs(list)

		for i, c := range list {
			want := orig[i]
			if linq.From(orig[:i]).Contains(orig[i]) {
				want = 0
			}
			if c.CID != want {
				t.Fatalf("entry %d: cid %d, want %d (input %v)", i, c.CID, want, orig)
			}
		}

		nonZero := linq.From(cidsOf(list)).WhereT(func(cid int) bool { return cid != 0 })
		if nonZero.Count() != nonZero.Distinct().Count() {
			t.Fatalf("duplicate ids survive: %v", cidsOf(list))
		}
	})
}
