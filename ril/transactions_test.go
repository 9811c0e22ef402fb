package ril

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestIDForIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tr := NewTransactions()
		tokens := rapid.SliceOfNDistinct(rapid.Uint64Range(1, 1<<40), 1, 64, rapid.ID[uint64]).Draw(t, "tokens")
		ids := map[Token]uint8{}
		for _, raw := range tokens {
			ids[Token(raw)] = tr.IDFor(Token(raw))
		}
		for _, raw := range tokens {
			if got := tr.IDFor(Token(raw)); got != ids[Token(raw)] {
				t.Fatalf("token %d: id %d, then %d", raw, ids[Token(raw)], got)
			}
		}
		if tr.Live() != len(tokens) {
			t.Fatalf("live %d, want %d", tr.Live(), len(tokens))
		}
	})
}

func TestNewIDIsRoundRobin(t *testing.T) {
	tr := NewTransactions()
	for i := 0; i < TransactionSlots; i++ {
		assert.Equal(t, uint8(i), tr.NewID(Token(1000+i)))
	}
	assert.Equal(t, uint8(0), tr.NewID(Token(5000)), "ring wraps")

	handle, ok := tr.HandleFor(0)
	assert.True(t, ok)
	assert.Equal(t, Token(5000), handle)
}

func TestNewIDRetiresPreviousSlotAndKeepsCancel(t *testing.T) {
	tr := NewTransactions()
	first := tr.IDFor(7)
	tr.SetCanceled(7, true)

	second := tr.NewID(7)
	assert.NotEqual(t, first, second)
	assert.True(t, tr.IsCanceled(7))

	_, ok := tr.HandleFor(first)
	assert.False(t, ok, "retired slot no longer resolves")
	handle, ok := tr.HandleFor(second)
	assert.True(t, ok)
	assert.Equal(t, Token(7), handle)
	assert.Equal(t, 1, tr.Live())
}

func TestIsCanceledNeverAllocates(t *testing.T) {
	tr := NewTransactions()
	assert.False(t, tr.IsCanceled(42))
	assert.Equal(t, 0, tr.Live())
}

func TestCompleteRetiresHandle(t *testing.T) {
	tr := NewTransactions()
	id := tr.IDFor(9)
	tr.SetCanceled(9, true)
	tr.Complete(9)

	_, ok := tr.HandleFor(id)
	assert.False(t, ok)
	assert.False(t, tr.IsCanceled(9), "a reused token starts clean")
	assert.NotEqual(t, id, tr.IDFor(9))
}

func TestSetCanceledIgnoresFinishedHandle(t *testing.T) {
	tr := NewTransactions()
	assert.False(t, tr.SetCanceled(3, true))
	assert.Equal(t, 0, tr.Live())

	tr.IDFor(3)
	tr.Complete(3)
	assert.False(t, tr.SetCanceled(3, true))
	assert.False(t, tr.IsCanceled(3))
	assert.False(t, tr.Outstanding(3))
}

func TestNewIDSkipsOutstandingSlots(t *testing.T) {
	tr := NewTransactions()
	for i := 0; i < TransactionSlots; i++ {
		tr.NewID(Token(i))
	}
	tr.Complete(Token(10))
	tr.Complete(Token(200))

	assert.Equal(t, uint8(10), tr.NewID(1000))
	assert.Equal(t, uint8(200), tr.NewID(1001))
	assert.True(t, tr.Outstanding(Token(0)))
	assert.True(t, tr.Outstanding(Token(11)))
	assert.False(t, tr.Outstanding(Token(10)))
}
