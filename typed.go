package cyphal

import (
	"github.com/edu-rossrobotics/cyphal/dsdl"
)

// Typed bindings between the dsdl codecs and the Node operations. Type
// parameters stand in for the per-data-type wrapper classes of the upstream
// implementation: fixed-port types carry their subject in the package,
// non-fixed types take the port at the call site.

// decodable constrains a pointer to a wrapper type that can be decoded and
// knows its serialization buffer size.
type decodable[T any] interface {
	*T
	dsdl.Unmarshaler
	MaxSerializedSize() int
}

// PublishMessage serializes msg and publishes it on the given subject at
// nominal priority.
func PublishMessage[T dsdl.Message](n *Node, subject PortID, msg T) error {
	payload, err := dsdl.Marshal(msg, msg.MaxSerializedSize())
	if err != nil {
		return err
	}
	return n.Publish(subject, payload)
}

// SubscribeMessage installs a message subscription that decodes payloads
// into T before invoking the handler. The subscription extent is T's
// serialization buffer size.
func SubscribeMessage[T any, P decodable[T]](n *Node, subject PortID, h func(msg T, t Transfer)) error {
	var probe T
	extent := P(&probe).MaxSerializedSize()
	return n.Subscribe(KindMessage, subject, extent, func(nd *Node, t Transfer) {
		var m T
		if err := dsdl.Unmarshal(t.Payload, P(&m)); err != nil {
			nd.log.Debug().Uint16("port", uint16(t.Port)).Err(err).Msg("payload decode failed")
			return
		}
		h(m, t)
	})
}

// RequestTyped serializes req, sends it to the server and decodes the
// matching response into Resp before invoking the handler. Like
// Node.Request, the handler is one-shot.
func RequestTyped[Req dsdl.Message, Resp any, P decodable[Resp]](n *Node, server NodeID, service PortID, req Req, h func(resp Resp, t Transfer)) error {
	payload, err := dsdl.Marshal(req, req.MaxSerializedSize())
	if err != nil {
		return err
	}
	var probe Resp
	extent := P(&probe).MaxSerializedSize()
	return n.Request(server, service, extent, payload, func(nd *Node, t Transfer) {
		var r Resp
		if err := dsdl.Unmarshal(t.Payload, P(&r)); err != nil {
			nd.log.Debug().Uint16("port", uint16(t.Port)).Err(err).Msg("response decode failed")
			return
		}
		h(r, t)
	})
}

// RespondTyped serializes resp and answers the request carried by t.
func RespondTyped[Resp dsdl.Message](n *Node, t Transfer, resp Resp) error {
	payload, err := dsdl.Marshal(resp, resp.MaxSerializedSize())
	if err != nil {
		return err
	}
	return n.Respond(t.Remote, t.Port, t.TransferID, payload)
}
