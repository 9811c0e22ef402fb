package ril

import (
	"context"
	"errors"
	"net"
	"sort"

	"github.com/looplab/fsm"
	"github.com/younglifestyle/rilbridge/common"
	"github.com/younglifestyle/rilbridge/ipc"
)

// ErrPoolExhausted is returned by Allocate when every slot is enabled.
var ErrPoolExhausted = errors.New("ril: data connection pool exhausted")

// NetworkConfig is the addressing the modem negotiated for a connection.
type NetworkConfig struct {
	Address  net.IP
	Gateway  net.IP
	DNS1     net.IP
	DNS2     net.IP
	Received bool
}

// DataConnection is one packet data session. Its CID is the slot index plus
// one and stays fixed until the slot is freed.
type DataConnection struct {
	CID        int
	Generation uint64
	Enabled    bool

	Owner   Token
	pending bool

	APN       string
	Username  string
	Password  string
	Interface string
	Config    NetworkConfig

	define   ipc.DefinePDPContext
	activate ipc.PDPContextSet

	state *ConnectionStateMachine
}

// Pending reports whether a request waits on this connection.
func (c *DataConnection) Pending() bool { return c.pending }

// SetOwner records token as the request waiting on this connection.
func (c *DataConnection) SetOwner(token Token) {
	c.Owner = token
	c.pending = true
}

// ClearOwner drops the waiting request and returns its token.
func (c *DataConnection) ClearOwner() Token {
	token := c.Owner
	c.Owner = 0
	c.pending = false
	return token
}

// State returns the lifecycle state.
func (c *DataConnection) State() string { return c.state.CurrentState() }

// DataCall renders the connection for the framework.
func (c *DataConnection) DataCall() DataCall {
	dc := DataCall{
		CID:       c.CID,
		Active:    DataCallInactive,
		Type:      "IP",
		APN:       c.APN,
		Interface: c.Interface,
	}
	if c.Enabled {
		dc.Active = DataCallActive
	}
	if c.Config.Received {
		dc.Address = c.Config.Address.String()
		dc.Gateway = c.Config.Gateway.String()
		for _, ip := range []net.IP{c.Config.DNS1, c.Config.DNS2} {
			if ip != nil && !ip.IsUnspecified() {
				dc.DNS = append(dc.DNS, ip.String())
			}
		}
	}
	return dc
}

type poolSlot struct {
	conn         *DataConnection
	failCause    FailCause
	hasFailCause bool
}

// Pool is the fixed-capacity table of data connections.
type Pool struct {
	slots []poolSlot
	// free holds empty slot indexes in ascending order so the lowest
	// connection id is reused first.
	free       []int
	generation uint64
	network    Networking
	logger     common.Logger
	onState    func(cid int, from, to string)
}

// NewPool sizes the pool to capacity slots. network may be nil, in which
// case freeing never touches host interfaces.
func NewPool(capacity int, network Networking, logger common.Logger) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	free := make([]int, capacity)
	for i := range free {
		free[i] = i
	}
	return &Pool{
		slots:   make([]poolSlot, capacity),
		free:    free,
		network: network,
		logger:  common.OrNop(logger),
	}
}

// Capacity returns the number of slots.
func (p *Pool) Capacity() int { return len(p.slots) }

// Occupied returns the number of allocated slots.
func (p *Pool) Occupied() int { return len(p.slots) - len(p.free) }

// Allocate takes the first empty slot. When none is empty, a disabled
// connection is evicted, preferring one no request waits on. The evicted
// connection is returned so its owner can be settled.
func (p *Pool) Allocate() (*DataConnection, *DataConnection, error) {
	if len(p.free) > 0 {
		i := p.free[0]
		p.free = p.free[1:]
		return p.install(i), nil, nil
	}

	victim := -1
	for i, s := range p.slots {
		if !s.conn.Enabled && !s.conn.pending {
			victim = i
			break
		}
	}
	if victim < 0 {
		for i, s := range p.slots {
			if !s.conn.Enabled {
				victim = i
				break
			}
		}
	}
	if victim < 0 {
		return nil, nil, ErrPoolExhausted
	}

	evicted := p.slots[victim].conn
	p.logger.Warn("evicting data connection", "cid", evicted.CID, "state", evicted.State())
	p.Free(evicted)
	p.unfree(victim)
	return p.install(victim), evicted, nil
}

func (p *Pool) install(i int) *DataConnection {
	p.generation++
	c := &DataConnection{CID: i + 1, Generation: p.generation}
	c.state = NewConnectionStateMachine(fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			p.logger.Debug("data connection state", "cid", c.CID, "from", e.Src, "to", e.Dst)
			if p.onState != nil {
				p.onState(c.CID, e.Src, e.Dst)
			}
		},
	})
	p.slots[i].conn = c
	return c
}

// SetStateObserver registers fn to be told about every lifecycle transition.
func (p *Pool) SetStateObserver(fn func(cid int, from, to string)) {
	p.onState = fn
}

// FindByConnectionID returns the allocated connection with cid.
func (p *Pool) FindByConnectionID(cid int) *DataConnection {
	if cid < 1 || cid > len(p.slots) {
		return nil
	}
	return p.slots[cid-1].conn
}

// FindByOwner returns the connection a pending request with token waits on.
func (p *Pool) FindByOwner(token Token) *DataConnection {
	for _, s := range p.slots {
		if s.conn != nil && s.conn.pending && s.conn.Owner == token {
			return s.conn
		}
	}
	return nil
}

// Connections returns allocated connections in slot order.
func (p *Pool) Connections() []*DataConnection {
	out := make([]*DataConnection, 0, len(p.slots))
	for _, s := range p.slots {
		if s.conn != nil {
			out = append(out, s.conn)
		}
	}
	return out
}

// Free brings the interface down if the connection was up and releases the
// slot. A recorded fail cause survives until TakeFailCause.
func (p *Pool) Free(c *DataConnection) {
	if c == nil || c.CID < 1 || c.CID > len(p.slots) || p.slots[c.CID-1].conn != c {
		return
	}
	if c.Enabled && c.Interface != "" && p.network != nil {
		if err := p.network.BringDown(c.Interface); err != nil {
			p.logger.Warn("bring down failed", "cid", c.CID, "iface", c.Interface, "error", err)
		}
	}
	if err := c.state.Release(); err != nil {
		p.logger.Warn("release failed", "cid", c.CID, "error", err)
	}
	c.Enabled = false
	p.slots[c.CID-1].conn = nil
	i := sort.SearchInts(p.free, c.CID-1)
	p.free = append(p.free, 0)
	copy(p.free[i+1:], p.free[i:])
	p.free[i] = c.CID - 1
}

func (p *Pool) unfree(slot int) {
	i := sort.SearchInts(p.free, slot)
	if i < len(p.free) && p.free[i] == slot {
		p.free = append(p.free[:i], p.free[i+1:]...)
	}
}

// SetFailCause remembers why the connection in slot cid failed.
func (p *Pool) SetFailCause(cid int, cause FailCause) {
	if cid < 1 || cid > len(p.slots) {
		return
	}
	p.slots[cid-1].failCause = cause
	p.slots[cid-1].hasFailCause = true
}

// TakeFailCause returns and clears the fail cause recorded for cid.
func (p *Pool) TakeFailCause(cid int) (FailCause, bool) {
	if cid < 1 || cid > len(p.slots) || !p.slots[cid-1].hasFailCause {
		return FailCauseUnspecified, false
	}
	cause := p.slots[cid-1].failCause
	p.slots[cid-1].failCause = 0
	p.slots[cid-1].hasFailCause = false
	return cause, true
}
