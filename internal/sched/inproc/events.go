package inproc

// Event is one observable dispatch event, published to an optional sink.
type Event struct {
	Type      string `json:"type"` // "enqueued" or "replied"
	MsgID     string `json:"msg_id"`
	Op        string `json:"op"`
	Partition string `json:"partition,omitempty"`
	SID       uint32 `json:"sid,omitempty"`
	Handle    int32  `json:"handle,omitempty"`
	Status    int32  `json:"status,omitempty"`
}

// Sink receives dispatch events. Implementations must not block.
type Sink interface {
	Publish(e Event)
}
