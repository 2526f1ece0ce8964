package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// PeerAddress identifies one physical device of a remote peer. A logical
// peer (Name) can own several devices, each with its own session.
type PeerAddress struct {
	Name     string
	DeviceID uint32
}

// NewPeerAddress returns the address for a named peer device.
func NewPeerAddress(name string, deviceID uint32) PeerAddress {
	return PeerAddress{Name: name, DeviceID: deviceID}
}

// String renders the address as "name:deviceID", the canonical store key.
func (a PeerAddress) String() string {
	return fmt.Sprintf("%s:%d", a.Name, a.DeviceID)
}

// IsZero reports whether the address carries no peer name.
func (a PeerAddress) IsZero() bool { return a.Name == "" }

// ParsePeerAddress parses the "name:deviceID" form produced by String.
func ParsePeerAddress(s string) (PeerAddress, error) {
	i := strings.LastIndexByte(s, ':')
	if i <= 0 {
		return PeerAddress{}, fmt.Errorf("%w: malformed peer address %q", ErrInvalidArgument, s)
	}
	dev, err := strconv.ParseUint(s[i+1:], 10, 32)
	if err != nil {
		return PeerAddress{}, fmt.Errorf("%w: malformed device id in %q", ErrInvalidArgument, s)
	}
	return PeerAddress{Name: s[:i], DeviceID: uint32(dev)}, nil
}
