package cyphal

import (
	"time"
)

// Handler consumes one completed transfer. The transfer payload must not be
// retained after the handler returns.
type Handler func(n *Node, t Transfer)

type subKey struct {
	kind TransferKind
	port PortID
}

// subscription is the per-port receive state: the user handler, the accepted
// payload extent and the per-source session used for duplicate suppression.
type subscription struct {
	kind    TransferKind
	port    PortID
	extent  int
	handler Handler

	sessions map[NodeID]*session
}

// session tracks the last accepted transfer-ID from one source node.
type session struct {
	transferID TransferID
	at         time.Time
}

// accept reports whether a transfer with the given ID from src should be
// delivered, updating session state. A repeated transfer-ID within the
// timeout window is a duplicate (e.g. from a redundant interface) and is
// suppressed. Anonymous sources carry no session state and always pass.
func (s *subscription) accept(src NodeID, id TransferID, now time.Time, timeout time.Duration) bool {
	if src == NodeIDUnset {
		return true
	}
	sess, ok := s.sessions[src]
	if !ok {
		s.sessions[src] = &session{transferID: id, at: now}
		return true
	}
	if sess.transferID == id && now.Sub(sess.at) < timeout {
		return false
	}
	sess.transferID = id
	sess.at = now
	return true
}
