package cyphal

import (
	"sync"
	"time"

	"github.com/edu-rossrobotics/cyphal/dsdl/uavcannode"
)

// HeartbeatPublisher periodically enqueues the mandatory
// uavcan.node.Heartbeat message with the node's uptime and current
// health/mode. Frames leave the node on the next Spin after each tick.
type HeartbeatPublisher struct {
	node     *Node
	interval time.Duration
	started  time.Time

	mu     sync.Mutex
	health uavcannode.Health
	mode   uavcannode.Mode
	vendor uint8

	stop      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

// HeartbeatInterval is the mandatory heartbeat publication period.
const HeartbeatInterval = time.Second

// NewHeartbeatPublisher creates a heartbeat publisher for the node. Uptime
// counts from this call. An interval of zero selects HeartbeatInterval.
func NewHeartbeatPublisher(node *Node, interval time.Duration) *HeartbeatPublisher {
	if interval <= 0 {
		interval = HeartbeatInterval
	}
	return &HeartbeatPublisher{
		node:     node,
		interval: interval,
		started:  node.now(),
		mode:     uavcannode.ModeInitialization,
		stop:     make(chan struct{}),
	}
}

// SetHealth updates the advertised health.
func (p *HeartbeatPublisher) SetHealth(h uavcannode.Health) {
	p.mu.Lock()
	p.health = h
	p.mu.Unlock()
}

// SetMode updates the advertised mode.
func (p *HeartbeatPublisher) SetMode(m uavcannode.Mode) {
	p.mu.Lock()
	p.mode = m
	p.mu.Unlock()
}

// SetVendorStatus updates the vendor-specific status code.
func (p *HeartbeatPublisher) SetVendorStatus(v uint8) {
	p.mu.Lock()
	p.vendor = v
	p.mu.Unlock()
}

// PublishNow enqueues a single heartbeat immediately.
func (p *HeartbeatPublisher) PublishNow() error {
	p.mu.Lock()
	hb := uavcannode.Heartbeat{
		Uptime:       uint32(p.node.now().Sub(p.started) / time.Second),
		Health:       p.health,
		Mode:         p.mode,
		VendorStatus: p.vendor,
	}
	p.mu.Unlock()
	return PublishMessage(p.node, PortID(uavcannode.HeartbeatSubjectID), hb)
}

// Start launches the background ticker. Calling Start more than once has no
// additional effect.
func (p *HeartbeatPublisher) Start() {
	p.startOnce.Do(func() { go p.run() })
}

// Stop halts the ticker. The publisher cannot be restarted.
func (p *HeartbeatPublisher) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}

func (p *HeartbeatPublisher) run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.publishTick()
		}
	}
}

func (p *HeartbeatPublisher) publishTick() {
	if err := p.PublishNow(); err != nil {
		p.node.log.Warn().Err(err).Msg("heartbeat publish failed")
	}
}
