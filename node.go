package cyphal

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/edu-rossrobotics/cyphal/can"
	"github.com/edu-rossrobotics/cyphal/mempool"
)

// Supported single-frame MTUs.
const (
	MTUClassic = 8  // classical CAN, up to 7 payload bytes per transfer
	MTUFD      = 64 // CAN FD, up to 63 payload bytes per transfer
)

// Defaults used by New when no option overrides them.
const (
	DefaultTxQueueCapacity = 100
	DefaultRxQueueCapacity = 32
	DefaultPayloadBlocks   = 32

	defaultSpinInterval = time.Millisecond
)

// Option configures a Node at construction time.
type Option func(*Node)

// WithMTU selects the single-frame MTU, MTUClassic or MTUFD.
func WithMTU(mtu int) Option { return func(n *Node) { n.mtu = mtu } }

// WithTxQueueCapacity bounds the number of frames awaiting transmission.
func WithTxQueueCapacity(frames int) Option { return func(n *Node) { n.txCap = frames } }

// WithRxQueueCapacity bounds the number of received frames awaiting Spin.
func WithRxQueueCapacity(frames int) Option { return func(n *Node) { n.rxCap = frames } }

// WithPayloadBlocks sets the number of fixed-size payload buffers available
// to in-flight received transfers.
func WithPayloadBlocks(blocks int) Option { return func(n *Node) { n.poolBlocks = blocks } }

// WithLogger attaches a logger; the default discards everything.
func WithLogger(l zerolog.Logger) Option { return func(n *Node) { n.log = l } }

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option { return func(n *Node) { n.now = now } }

// WithTransferIDTimeout overrides the duplicate-suppression window.
func WithTransferIDTimeout(d time.Duration) Option {
	return func(n *Node) { n.transferIDTimeout = d }
}

type rxFrame struct {
	frame can.Frame
	at    time.Time
}

// Node ties a CAN bus to the Cyphal transport: it owns the transmit queue,
// an internal receive queue, the subscription table and the per-port
// transfer-ID counters. Frames flow in through OnFrameReceived (or Run) and
// out through Spin.
type Node struct {
	bus               can.Bus
	log               zerolog.Logger
	now               func() time.Time
	mtu               int
	transferIDTimeout time.Duration
	txCap             int
	rxCap             int
	poolBlocks        int

	mu       sync.Mutex
	id       NodeID
	tx       *txQueue
	subs     map[subKey]*subscription
	lastTxID map[PortID]TransferID
	pending  map[PortID]TransferID
	pool     *mempool.Pool

	rx        chan rxFrame
	rxDropped atomic.Uint64
	oomDrops  atomic.Uint64
}

// New creates a node bound to the given bus. Use NodeIDUnset for anonymous
// operation (plug-and-play allocation happens at a higher layer).
func New(bus can.Bus, id NodeID, opts ...Option) (*Node, error) {
	if id > NodeIDMax && id != NodeIDUnset {
		return nil, ErrInvalidNodeID
	}
	n := &Node{
		bus:               bus,
		log:               zerolog.Nop(),
		now:               time.Now,
		mtu:               MTUClassic,
		transferIDTimeout: DefaultTransferIDTimeout,
		txCap:             DefaultTxQueueCapacity,
		rxCap:             DefaultRxQueueCapacity,
		poolBlocks:        DefaultPayloadBlocks,
		id:                id,
		subs:              make(map[subKey]*subscription),
		lastTxID:          make(map[PortID]TransferID),
		pending:           make(map[PortID]TransferID),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.mtu != MTUClassic && n.mtu != MTUFD {
		return nil, fmt.Errorf("cyphal: unsupported MTU %d (want %d or %d)", n.mtu, MTUClassic, MTUFD)
	}
	if n.txCap <= 0 || n.rxCap <= 0 || n.poolBlocks <= 0 {
		return nil, fmt.Errorf("cyphal: queue capacities must be positive")
	}
	pool, err := mempool.New(MTUFD, n.poolBlocks)
	if err != nil {
		return nil, err
	}
	n.pool = pool
	n.tx = newTxQueue(n.txCap)
	n.rx = make(chan rxFrame, n.rxCap)
	return n, nil
}

// SetNodeID changes the node's own identifier.
func (n *Node) SetNodeID(id NodeID) error {
	if id > NodeIDMax && id != NodeIDUnset {
		return ErrInvalidNodeID
	}
	n.mu.Lock()
	n.id = id
	n.mu.Unlock()
	return nil
}

// NodeID returns the node's own identifier.
func (n *Node) NodeID() NodeID {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.id
}

// Anonymous reports whether the node operates without an identifier.
func (n *Node) Anonymous() bool { return n.NodeID() == NodeIDUnset }

// Subscribe installs a handler for transfers of the given kind and port.
// extent is the maximum payload size the handler is prepared to accept;
// longer payloads are truncated. Subscribing to a port twice replaces the
// previous handler and resets its sessions.
func (n *Node) Subscribe(kind TransferKind, port PortID, extent int, h Handler) error {
	if err := validatePort(kind, port); err != nil {
		return err
	}
	if h == nil {
		return fmt.Errorf("cyphal: nil handler")
	}
	if extent < 0 || extent > MTUFD-1 {
		return fmt.Errorf("cyphal: extent %d out of range", extent)
	}
	n.mu.Lock()
	n.subs[subKey{kind, port}] = &subscription{
		kind:     kind,
		port:     port,
		extent:   extent,
		handler:  h,
		sessions: make(map[NodeID]*session),
	}
	n.mu.Unlock()
	return nil
}

// Unsubscribe removes the subscription for the given kind and port,
// reporting whether one existed.
func (n *Node) Unsubscribe(kind TransferKind, port PortID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.unsubscribeLocked(kind, port)
}

func (n *Node) unsubscribeLocked(kind TransferKind, port PortID) bool {
	key := subKey{kind, port}
	_, ok := n.subs[key]
	delete(n.subs, key)
	if kind == KindResponse {
		delete(n.pending, port)
	}
	return ok
}

// Publish enqueues a message transfer on the given subject at nominal
// priority.
func (n *Node) Publish(subject PortID, payload []byte) error {
	return n.PublishPriority(PriorityNominal, subject, payload)
}

// PublishPriority enqueues a message transfer with an explicit priority.
// Anonymous nodes publish with a payload-derived pseudo source identifier.
func (n *Node) PublishPriority(prio Priority, subject PortID, payload []byte) error {
	if subject > SubjectIDMax {
		return ErrInvalidPort
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	src := n.id
	anonymous := src == NodeIDUnset
	if anonymous {
		src = pseudoSourceID(payload)
	}
	tid := n.nextTransferIDLocked(subject)
	return n.enqueueLocked(messageCANID(prio, subject, src, anonymous), payload, tid)
}

// Request enqueues a service request to the server node and installs a
// one-shot response handler. The handler fires only for the response whose
// transfer-ID matches this request; it is removed after delivery.
func (n *Node) Request(server NodeID, service PortID, extent int, payload []byte, h Handler) error {
	if service > ServiceIDMax {
		return ErrInvalidPort
	}
	if server > NodeIDMax {
		return ErrInvalidNodeID
	}
	if h == nil {
		return fmt.Errorf("cyphal: nil handler")
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.id == NodeIDUnset {
		return ErrAnonymousService
	}
	tid := n.nextTransferIDLocked(service)
	if err := n.enqueueLocked(serviceCANID(PriorityNominal, service, server, n.id, true), payload, tid); err != nil {
		return err
	}
	n.subs[subKey{KindResponse, service}] = &subscription{
		kind:     KindResponse,
		port:     service,
		extent:   extent,
		handler:  h,
		sessions: make(map[NodeID]*session),
	}
	n.pending[service] = tid
	return nil
}

// Respond enqueues a service response to the client node. The transfer-ID
// must be the one carried by the request being answered.
func (n *Node) Respond(client NodeID, service PortID, tid TransferID, payload []byte) error {
	if service > ServiceIDMax {
		return ErrInvalidPort
	}
	if client > NodeIDMax {
		return ErrInvalidNodeID
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.id == NodeIDUnset {
		return ErrAnonymousService
	}
	return n.enqueueLocked(serviceCANID(PriorityNominal, service, client, n.id, false), payload, tid&TransferIDMax)
}

// OnFrameReceived hands a raw frame to the node. It never blocks: when the
// internal receive queue is full the frame is dropped and counted.
func (n *Node) OnFrameReceived(f can.Frame, at time.Time) {
	select {
	case n.rx <- rxFrame{frame: f, at: at}:
	default:
		n.rxDropped.Add(1)
		n.log.Debug().Uint32("id", f.ID).Msg("rx queue full, frame dropped")
	}
}

// Spin drains the receive queue through the accept path and then pushes
// queued frames onto the bus. A frame the bus refuses stays queued and the
// error is returned.
func (n *Node) Spin() error {
	for {
		select {
		case rf := <-n.rx:
			n.acceptFrame(rf.frame, rf.at)
		default:
			return n.transmitPending()
		}
	}
}

// Run pumps bus.Receive into the node and calls Spin periodically until the
// context is cancelled or the bus fails. Closing the bus unblocks the
// internal reader.
func (n *Node) Run(ctx context.Context) error {
	readErr := make(chan error, 1)
	go func() {
		for {
			f, err := n.bus.Receive()
			if err != nil {
				readErr <- err
				return
			}
			n.OnFrameReceived(f, n.now())
		}
	}()

	ticker := time.NewTicker(defaultSpinInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			// Deliver what already arrived before reporting.
			if spinErr := n.Spin(); spinErr != nil {
				return spinErr
			}
			return err
		case <-ticker.C:
			if err := n.Spin(); err != nil {
				return err
			}
		}
	}
}

// RxDropped reports frames dropped due to receive queue overflow.
func (n *Node) RxDropped() uint64 { return n.rxDropped.Load() }

// PayloadDropped reports transfers dropped because no payload buffer was
// available.
func (n *Node) PayloadDropped() uint64 { return n.oomDrops.Load() }

// TxBacklog reports the number of frames awaiting transmission.
func (n *Node) TxBacklog() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.tx.len()
}

// PoolStats exposes payload buffer pool usage.
func (n *Node) PoolStats() mempool.Stats { return n.pool.Stats() }

func validatePort(kind TransferKind, port PortID) error {
	switch kind {
	case KindMessage:
		if port > SubjectIDMax {
			return ErrInvalidPort
		}
	case KindRequest, KindResponse:
		if port > ServiceIDMax {
			return ErrInvalidPort
		}
	default:
		return fmt.Errorf("cyphal: invalid transfer kind %d", kind)
	}
	return nil
}

// nextTransferIDLocked advances the per-port cyclic counter, starting at 0
// for a port's first transfer.
func (n *Node) nextTransferIDLocked(port PortID) TransferID {
	tid, ok := n.lastTxID[port]
	if ok {
		tid = (tid + 1) % transferIDModulo
	}
	n.lastTxID[port] = tid
	return tid
}

// enqueueLocked serializes a single-frame transfer into the TX queue.
func (n *Node) enqueueLocked(canID uint32, payload []byte, tid TransferID) error {
	if len(payload) > n.mtu-1 {
		return ErrPayloadTooLarge
	}
	var f can.Frame
	f.ID = canID
	f.Extended = true
	if n.mtu > MTUClassic {
		f.FD = true
		f.Len = can.NextFDLength(len(payload) + 1)
	} else {
		f.Len = uint8(len(payload) + 1)
	}
	copy(f.Data[:], payload)
	// Padding bytes between payload and tail stay zero.
	f.Data[f.Len-1] = makeTailByte(tid)
	return n.tx.push(f)
}

func (n *Node) transmitPending() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for {
		f, ok := n.tx.peek()
		if !ok {
			return nil
		}
		if err := n.bus.Send(f); err != nil {
			return err
		}
		n.tx.pop()
	}
}

// acceptFrame runs one received frame through parsing, session filtering and
// handler dispatch.
func (n *Node) acceptFrame(f can.Frame, at time.Time) {
	info, err := ParseFrame(&f)
	if err != nil {
		n.log.Debug().Uint32("id", f.ID).Err(err).Msg("frame rejected")
		return
	}

	n.mu.Lock()
	if info.Kind != KindMessage && (n.id == NodeIDUnset || info.Dest != n.id) {
		n.mu.Unlock()
		return
	}
	sub, ok := n.subs[subKey{info.Kind, info.Port}]
	if !ok {
		n.mu.Unlock()
		return
	}
	if !sub.accept(info.Source, info.TransferID, at, n.transferIDTimeout) {
		n.mu.Unlock()
		n.log.Debug().
			Uint16("port", uint16(info.Port)).
			Uint8("transfer_id", uint8(info.TransferID)).
			Msg("duplicate transfer dropped")
		return
	}
	if info.Kind == KindResponse {
		tid, outstanding := n.pending[info.Port]
		if !outstanding || tid != info.TransferID {
			n.mu.Unlock()
			return
		}
		// One-shot: drop the pending entry and the subscription before the
		// handler runs so a duplicate cannot fire it twice.
		n.unsubscribeLocked(KindResponse, info.Port)
	}
	handler := sub.handler
	extent := sub.extent
	n.mu.Unlock()

	buf, err := n.pool.Get()
	if err != nil {
		n.oomDrops.Add(1)
		n.log.Warn().Uint16("port", uint16(info.Port)).Msg("payload pool exhausted, transfer dropped")
		return
	}
	size := len(info.Payload)
	if size > extent {
		size = extent
	}
	buf = append(buf, info.Payload[:size]...)

	n.log.Debug().
		Uint16("port", uint16(info.Port)).
		Stringer("kind", info.Kind).
		Uint8("source", uint8(info.Source)).
		Int("bytes", size).
		Msg("transfer accepted")

	handler(n, Transfer{
		TransferMetadata: TransferMetadata{
			Priority:   info.Priority,
			Kind:       info.Kind,
			Port:       info.Port,
			Remote:     info.Source,
			TransferID: info.TransferID,
		},
		Payload:   buf,
		Timestamp: at,
	})
	_ = n.pool.Put(buf)
}

// pseudoSourceID derives a stable pseudo source identifier for anonymous
// transfers from the payload bytes.
func pseudoSourceID(payload []byte) NodeID {
	h := fnv.New32a()
	_, _ = h.Write(payload)
	return NodeID(h.Sum32() & uint32(NodeIDMax))
}
