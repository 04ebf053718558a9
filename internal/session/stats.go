package session

import "time"

// Stats is a session's mutable runtime state. It is only ever mutated
// by the goroutine of the Reactor the session is assigned to.
type Stats struct {
	BytesSent     uint64
	BytesReceived uint64

	StartTime time.Time

	SendDuration    time.Duration
	ReceiveDuration time.Duration
	TotalDuration   time.Duration

	IsSendComplete    bool
	IsReceiveComplete bool
}
