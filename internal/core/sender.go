package core

// Frame is a raw outbound payload.
type Frame []byte

// SignalConnection abstracts the messaging transport for one client.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
