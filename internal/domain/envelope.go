package domain

// Wire message types understood by the messaging facade. The values mirror
// the Signal protocol message type constants.
const (
	// PreKeyMessageType marks the first message of a session, carrying the
	// material the receiver needs to build its side of the ratchet.
	PreKeyMessageType uint32 = 3
	// RatchetMessageType marks an ordinary message inside an established
	// session.
	RatchetMessageType uint32 = 2
)

// Envelope is an encrypted message in transit: a wire type tag plus the
// serialized ciphertext. The payload format is owned by the protocol
// library and is opaque here.
type Envelope struct {
	Type    uint32
	Payload []byte
}
