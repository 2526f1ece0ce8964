package messaging

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.mau.fi/libsignal/keys/prekey"
	"go.mau.fi/libsignal/protocol"
	"go.mau.fi/libsignal/serialize"
	"go.mau.fi/libsignal/session"

	"sigvault/internal/domain"
	"sigvault/internal/signal"
)

// Service encrypts and decrypts messages for one local party.
//
// High-level flow:
//   - Establish: verify and process a peer's pre-key bundle; the library
//     derives the initial ratchet state and persists it via the store.
//   - Encrypt: run the session cipher; the first message of a session comes
//     out as a pre-key message, later ones as ordinary ratchet messages.
//   - Decrypt: dispatch on the envelope's wire type and hand the payload to
//     the cipher, which advances and persists the ratchet state.
type Service struct {
	store      *signal.Store
	serializer *serialize.Serializer
	log        zerolog.Logger
}

// New returns a messaging service backed by the given protocol store.
func New(store *signal.Store, serializer *serialize.Serializer, log zerolog.Logger) *Service {
	return &Service{store: store, serializer: serializer, log: log}
}

func signalAddress(addr domain.PeerAddress) *protocol.SignalAddress {
	return protocol.NewSignalAddress(addr.Name, addr.DeviceID)
}

func (s *Service) cipher(remote domain.PeerAddress) *session.Cipher {
	address := signalAddress(remote)
	builder := session.NewBuilderFromSignal(s.store, address, s.serializer)
	return session.NewCipher(builder, address)
}

// Establish processes the peer's pre-key bundle and persists the resulting
// session. It fails if the bundle's identity key contradicts a pinned key
// for the peer (the caller should abort and surface the mismatch).
func (s *Service) Establish(ctx context.Context, remote domain.PeerAddress, bundle *prekey.Bundle) error {
	address := signalAddress(remote)
	builder := session.NewBuilderFromSignal(s.store, address, s.serializer)
	if err := builder.ProcessBundle(ctx, bundle); err != nil {
		return fmt.Errorf("establish session with %s: %w", remote, err)
	}
	s.log.Debug().Stringer("peer", remote).Msg("session established")
	return nil
}

// Encrypt encrypts plaintext for the peer and wraps the ciphertext in an
// envelope tagged with its wire type.
func (s *Service) Encrypt(ctx context.Context, remote domain.PeerAddress, plaintext []byte) (domain.Envelope, error) {
	msg, err := s.cipher(remote).Encrypt(ctx, plaintext)
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("encrypt for %s: %w", remote, err)
	}
	return domain.Envelope{Type: msg.Type(), Payload: msg.Serialize()}, nil
}

// Decrypt opens an envelope from the peer. Only the two known wire types
// are accepted; anything else fails fast with ErrUnsupportedMessageType.
func (s *Service) Decrypt(ctx context.Context, remote domain.PeerAddress, env domain.Envelope) ([]byte, error) {
	switch env.Type {
	case domain.PreKeyMessageType:
		msg, err := protocol.NewPreKeySignalMessageFromBytes(
			env.Payload,
			s.serializer.PreKeySignalMessage,
			s.serializer.SignalMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("parse pre-key message from %s: %w", remote, err)
		}
		return s.cipher(remote).DecryptMessage(ctx, msg)

	case domain.RatchetMessageType:
		msg, err := protocol.NewSignalMessageFromBytes(env.Payload, s.serializer.SignalMessage)
		if err != nil {
			return nil, fmt.Errorf("parse ratchet message from %s: %w", remote, err)
		}
		return s.cipher(remote).Decrypt(ctx, msg)

	default:
		return nil, fmt.Errorf("%w: wire type %d", domain.ErrUnsupportedMessageType, env.Type)
	}
}

// HasSession reports whether a session with the peer already exists.
func (s *Service) HasSession(ctx context.Context, remote domain.PeerAddress) (bool, error) {
	return s.store.ContainsSession(ctx, signalAddress(remote))
}

// EndSession removes the session state for every device of the named peer.
func (s *Service) EndSession(name string) error {
	s.log.Debug().Str("peer", name).Msg("tearing down sessions")
	return s.store.RemoveAllSessions(name)
}
