package proto

const (
	ProtocolVersion = 1

	OutboundTypeHello = "hello"
	OutboundTypeState = "state"
	OutboundTypeError = "error"
)

// Outbound is the envelope pushed to state feed subscribers.
type Outbound struct {
	Type     string `json:"type"`
	Protocol int    `json:"protocol,omitempty"`
	Data     any    `json:"data,omitempty"`
	Error    *Error `json:"error,omitempty"`
}

// Error describes a feed-level error.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
