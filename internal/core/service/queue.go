package service

// OrderPayload is what the queues carry per order.
type OrderPayload struct {
	Product  string
	Quantity int
}

// OrderQueues pairs the PendingQueue (order id to payload) with the
// ProcessingQueue (strict FIFO of order ids). Both mirror the ledger's
// queued rows and are rebuilt from them at startup. A Remove leaves the
// FIFO untouched; the stale id becomes a tombstone that Head skips.
type OrderQueues struct {
	pending map[string]OrderPayload
	fifo    []string
	inFIFO  map[string]struct{}
}

func NewOrderQueues() *OrderQueues {
	return &OrderQueues{
		pending: make(map[string]OrderPayload),
		inFIFO:  make(map[string]struct{}),
	}
}

// Enqueue registers the order in both queues. Re-enqueueing an id already in
// the FIFO refreshes the pending payload but appends nothing, which is what
// makes recovery idempotent.
func (q *OrderQueues) Enqueue(id, product string, quantity int) bool {
	q.pending[id] = OrderPayload{Product: product, Quantity: quantity}
	if _, ok := q.inFIFO[id]; ok {
		return false
	}
	q.inFIFO[id] = struct{}{}
	q.fifo = append(q.fifo, id)
	return true
}

// Head returns the first FIFO entry still present in the pending map,
// pruning tombstones left behind by Remove. ok is false when nothing is
// waiting — a normal condition, not a fault.
func (q *OrderQueues) Head() (id string, payload OrderPayload, ok bool) {
	for len(q.fifo) > 0 {
		head := q.fifo[0]
		p, live := q.pending[head]
		if live {
			return head, p, true
		}
		q.fifo = q.fifo[1:]
		delete(q.inFIFO, head)
	}
	return "", OrderPayload{}, false
}

// Pop drops the head returned by Head. The caller commits the durable
// status change between the two calls, so a failed commit leaves the
// queue intact.
func (q *OrderQueues) Pop() {
	if len(q.fifo) == 0 {
		return
	}
	head := q.fifo[0]
	q.fifo = q.fifo[1:]
	delete(q.inFIFO, head)
	delete(q.pending, head)
}

// Remove deletes the order from the pending map only, reporting whether it
// was there. Used for out-of-band cancellation.
func (q *OrderQueues) Remove(id string) bool {
	if _, ok := q.pending[id]; !ok {
		return false
	}
	delete(q.pending, id)
	return true
}

// Get returns the pending payload for an order id.
func (q *OrderQueues) Get(id string) (OrderPayload, bool) {
	p, ok := q.pending[id]
	return p, ok
}

// Len is the number of live (pending) entries.
func (q *OrderQueues) Len() int {
	return len(q.pending)
}
