package ril

// TransactionSlots is the size of the transaction id ring. Ids travel in a
// single header byte.
const TransactionSlots = 256

type transaction struct {
	handle    Token
	occupied  bool
	completed bool
	canceled  bool
}

func (t *transaction) live() bool {
	return t.occupied && !t.completed
}

// Transactions maps modem transaction ids to framework tokens. Ids are handed
// out round-robin, skipping slots whose request is still outstanding, so a
// reused id always belonged to a finished request. Only when every slot is
// live is the next one taken over. Not safe for concurrent use.
type Transactions struct {
	slots [TransactionSlots]transaction
	next  uint8
}

func NewTransactions() *Transactions {
	return &Transactions{}
}

// NewID allocates the next id for handle. A live slot already held by handle
// is retired and its canceled flag moves to the new slot, so a chained step
// keeps the request's cancellation.
func (t *Transactions) NewID(handle Token) uint8 {
	canceled := false
	for i := range t.slots {
		s := &t.slots[i]
		if s.live() && s.handle == handle {
			canceled = canceled || s.canceled
			s.completed = true
		}
	}

	id := t.next
	for i := 0; i < TransactionSlots; i++ {
		if !t.slots[t.next+uint8(i)].live() {
			id = t.next + uint8(i)
			break
		}
	}
	t.next = id + 1
	t.slots[id] = transaction{handle: handle, occupied: true, canceled: canceled}
	return id
}

// IDFor returns the live id held by handle, allocating one if there is none.
func (t *Transactions) IDFor(handle Token) uint8 {
	if id, ok := t.find(handle); ok {
		return id
	}
	return t.NewID(handle)
}

func (t *Transactions) find(handle Token) (uint8, bool) {
	for i := range t.slots {
		if t.slots[i].live() && t.slots[i].handle == handle {
			return uint8(i), true
		}
	}
	return 0, false
}

// HandleFor returns the token behind a live id.
func (t *Transactions) HandleFor(id uint8) (Token, bool) {
	s := t.slots[id]
	if !s.live() {
		return 0, false
	}
	return s.handle, true
}

// SetCanceled marks handle's live transaction. A handle with nothing
// outstanding is left alone so a later request reusing the token starts
// clean. It reports whether a transaction was marked.
func (t *Transactions) SetCanceled(handle Token, canceled bool) bool {
	id, ok := t.find(handle)
	if ok {
		t.slots[id].canceled = canceled
	}
	return ok
}

// IsCanceled reports whether handle's live transaction was canceled. It never allocates.
func (t *Transactions) IsCanceled(handle Token) bool {
	id, ok := t.find(handle)
	return ok && t.slots[id].canceled
}

// Outstanding reports whether handle holds a live transaction.
func (t *Transactions) Outstanding(handle Token) bool {
	_, ok := t.find(handle)
	return ok
}

// Complete retires every live slot held by handle. A later request reusing
// the same token value starts from a fresh slot.
func (t *Transactions) Complete(handle Token) {
	for i := range t.slots {
		if t.slots[i].live() && t.slots[i].handle == handle {
			t.slots[i].completed = true
		}
	}
}

// Live returns the number of transactions not yet completed.
func (t *Transactions) Live() int {
	n := 0
	for i := range t.slots {
		if t.slots[i].live() {
			n++
		}
	}
	return n
}
