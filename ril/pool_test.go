package ril

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestPoolCapacityInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 8).Draw(t, "capacity")
		p := NewPool(capacity, nil, nil)

		for i := 0; i < capacity; i++ {
			c, evicted, err := p.Allocate()
			if err != nil || evicted != nil || c.CID != i+1 {
				t.Fatalf("allocation %d: cid=%v evicted=%v err=%v", i, c, evicted, err)
			}
		}

		ops := rapid.SliceOfN(rapid.IntRange(0, 2), 1, 50).Draw(t, "ops")
		for _, op := range ops {
			switch op {
			case 0:
				c, evicted, err := p.Allocate()
				if err == nil && p.Occupied() == capacity && evicted == nil && c == nil {
					t.Fatalf("allocation without a slot")
				}
				if err == ErrPoolExhausted {
					for _, conn := range p.Connections() {
						if !conn.Enabled {
							t.Fatalf("exhausted with disabled cid %d", conn.CID)
						}
					}
				}
			case 1:
				if conns := p.Connections(); len(conns) > 0 {
					conns[rapid.IntRange(0, len(conns)-1).Draw(t, "enable")].Enabled = true
				}
			case 2:
				if conns := p.Connections(); len(conns) > 0 {
					p.Free(conns[rapid.IntRange(0, len(conns)-1).Draw(t, "free")])
				}
			}
			if p.Occupied() != len(p.Connections()) {
				t.Fatalf("occupied %d, connections %d", p.Occupied(), len(p.Connections()))
			}
			if p.Occupied() > capacity {
				t.Fatalf("occupied %d > capacity %d", p.Occupied(), capacity)
			}
			seen := map[int]bool{}
			for _, conn := range p.Connections() {
				if seen[conn.CID] {
					t.Fatalf("duplicate cid %d", conn.CID)
				}
				seen[conn.CID] = true
			}
		}
	})
}

func TestPoolExhaustedWhenAllEnabled(t *testing.T) {
	p := NewPool(2, nil, nil)
	for i := 0; i < 2; i++ {
		c, _, err := p.Allocate()
		require.NoError(t, err)
		c.Enabled = true
	}
	c, evicted, err := p.Allocate()
	assert.Equal(t, ErrPoolExhausted, err)
	assert.Nil(t, c)
	assert.Nil(t, evicted)
	assert.Equal(t, 2, p.Occupied())
}

func TestPoolEvictionPrefersUnowned(t *testing.T) {
	p := NewPool(3, nil, nil)
	owned, _, _ := p.Allocate()
	owned.SetOwner(10)
	free, _, _ := p.Allocate()
	up, _, _ := p.Allocate()
	up.Enabled = true

	c, evicted, err := p.Allocate()
	require.NoError(t, err)
	assert.Same(t, free, evicted)
	assert.Equal(t, free.CID, c.CID)
	assert.Greater(t, c.Generation, free.Generation)

	c.SetOwner(11)
	c2, evicted, err := p.Allocate()
	require.NoError(t, err)
	assert.Same(t, owned, evicted, "owned disabled slots go last")
	assert.Equal(t, owned.CID, c2.CID)
}

func TestPoolReusesLowestFreeSlot(t *testing.T) {
	p := NewPool(3, nil, nil)
	var conns []*DataConnection
	for i := 0; i < 3; i++ {
		c, _, err := p.Allocate()
		require.NoError(t, err)
		conns = append(conns, c)
	}

	p.Free(conns[2])
	p.Free(conns[0])
	assert.Equal(t, 1, p.Occupied())

	c, _, err := p.Allocate()
	require.NoError(t, err)
	assert.Equal(t, 1, c.CID)
	c, _, err = p.Allocate()
	require.NoError(t, err)
	assert.Equal(t, 3, c.CID)
	assert.Equal(t, 3, p.Occupied())
}

func TestPoolFindAndFree(t *testing.T) {
	net := &fakeNetwork{}
	p := NewPool(2, net, nil)
	c, _, _ := p.Allocate()
	c.SetOwner(5)
	assert.Same(t, c, p.FindByConnectionID(1))
	assert.Same(t, c, p.FindByOwner(5))
	assert.Nil(t, p.FindByConnectionID(0))
	assert.Nil(t, p.FindByConnectionID(3))

	c.ClearOwner()
	assert.Nil(t, p.FindByOwner(5))

	c.Interface = "rmnet0"
	c.Enabled = true
	p.Free(c)
	assert.Equal(t, []string{"rmnet0"}, net.downs)
	assert.Nil(t, p.FindByConnectionID(1))
	p.Free(c)
	assert.Len(t, net.downs, 1, "double free is ignored")
}

func TestPoolFailCauseSurvivesFreeAndIsReadOnce(t *testing.T) {
	p := NewPool(1, nil, nil)
	c, _, _ := p.Allocate()
	p.SetFailCause(c.CID, FailCauseUserAuthentication)
	p.Free(c)

	cause, ok := p.TakeFailCause(1)
	assert.True(t, ok)
	assert.Equal(t, FailCauseUserAuthentication, cause)

	cause, ok = p.TakeFailCause(1)
	assert.False(t, ok)
	assert.Equal(t, FailCauseUnspecified, cause)
}
