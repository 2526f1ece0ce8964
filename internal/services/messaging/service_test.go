package messaging_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"go.mau.fi/libsignal/serialize"
	"go.mau.fi/libsignal/signalerror"

	"sigvault/internal/domain"
	"sigvault/internal/services/account"
	"sigvault/internal/services/messaging"
	"sigvault/internal/signal"
	"sigvault/internal/store"
)

// party is one side of the simulated conversation: its own store and
// services, fully independent of the other side.
type party struct {
	name     string
	creds    *store.Memory
	proto    *signal.Store
	account  *account.Service
	messages *messaging.Service
}

func newParty(t *testing.T, name string) *party {
	t.Helper()
	creds := store.NewMemory()
	serializer := serialize.NewJSONSerializer()
	proto := signal.NewStore(creds, serializer)
	p := &party{
		name:     name,
		creds:    creds,
		proto:    proto,
		account:  account.New(creds, proto, serializer, 1, zerolog.Nop()),
		messages: messaging.New(proto, serializer, zerolog.Nop()),
	}
	if err := p.account.Initialize(context.Background(), 5); err != nil {
		t.Fatalf("initialize %s: %v", name, err)
	}
	return p
}

func (p *party) address() domain.PeerAddress {
	return domain.NewPeerAddress(p.name, 1)
}

func TestExchange_BothDirections(t *testing.T) {
	ctx := context.Background()
	alice := newParty(t, "alice")
	bob := newParty(t, "bob")

	bundle, err := bob.account.Bundle(ctx)
	if err != nil {
		t.Fatalf("bob bundle: %v", err)
	}
	if err := alice.messages.Establish(ctx, bob.address(), bundle); err != nil {
		t.Fatalf("establish: %v", err)
	}

	// First message is a pre-key message.
	first := []byte("hello bob")
	env, err := alice.messages.Encrypt(ctx, bob.address(), first)
	if err != nil {
		t.Fatalf("alice encrypt: %v", err)
	}
	if env.Type != domain.PreKeyMessageType {
		t.Fatalf("first message has wire type %d, want %d", env.Type, domain.PreKeyMessageType)
	}
	got, err := bob.messages.Decrypt(ctx, alice.address(), env)
	if err != nil {
		t.Fatalf("bob decrypt: %v", err)
	}
	if !bytes.Equal(got, first) {
		t.Fatalf("bob read %q, want %q", got, first)
	}

	// Reply flows inside the established session as a ratchet message.
	reply := []byte("hello alice")
	env, err = bob.messages.Encrypt(ctx, alice.address(), reply)
	if err != nil {
		t.Fatalf("bob encrypt: %v", err)
	}
	if env.Type != domain.RatchetMessageType {
		t.Fatalf("reply has wire type %d, want %d", env.Type, domain.RatchetMessageType)
	}
	got, err = alice.messages.Decrypt(ctx, bob.address(), env)
	if err != nil {
		t.Fatalf("alice decrypt: %v", err)
	}
	if !bytes.Equal(got, reply) {
		t.Fatalf("alice read %q, want %q", got, reply)
	}

	// Both sides now hold the other's pinned identity key.
	aliceID, _, _ := alice.creds.IdentityKeyPair()
	bobID, _, _ := bob.creds.IdentityKeyPair()
	if ok, _ := alice.creds.IsTrustedIdentity(bob.address(), bobID.Public); !ok {
		t.Fatal("alice does not trust bob's pinned key")
	}
	if ok, _ := bob.creds.IsTrustedIdentity(alice.address(), aliceID.Public); !ok {
		t.Fatal("bob does not trust alice's pinned key")
	}
}

func TestDecrypt_RejectsUnknownWireType(t *testing.T) {
	ctx := context.Background()
	alice := newParty(t, "alice")

	env := domain.Envelope{Type: 9, Payload: []byte{1, 2, 3}}
	_, err := alice.messages.Decrypt(ctx, domain.NewPeerAddress("bob", 1), env)
	if !errors.Is(err, domain.ErrUnsupportedMessageType) {
		t.Fatalf("expected ErrUnsupportedMessageType, got %v", err)
	}
}

func TestEstablish_RefusesChangedIdentityKey(t *testing.T) {
	ctx := context.Background()
	alice := newParty(t, "alice")
	bob := newParty(t, "bob")

	// Alice pins a different key for "bob" before reading his bundle, as if
	// a previous conversation had pinned the real one.
	impostor := newParty(t, "bob")
	impostorID, _, _ := impostor.creds.IdentityKeyPair()
	if _, err := alice.creds.SaveIdentity(bob.address(), impostorID.Public); err != nil {
		t.Fatalf("pin: %v", err)
	}

	bundle, err := bob.account.Bundle(ctx)
	if err != nil {
		t.Fatalf("bundle: %v", err)
	}
	err = alice.messages.Establish(ctx, bob.address(), bundle)
	if !errors.Is(err, signalerror.ErrUntrustedIdentity) {
		t.Fatalf("expected ErrUntrustedIdentity, got %v", err)
	}
}

func TestExchange_SeveralMessagesAdvanceRatchet(t *testing.T) {
	ctx := context.Background()
	alice := newParty(t, "alice")
	bob := newParty(t, "bob")

	bundle, err := bob.account.Bundle(ctx)
	if err != nil {
		t.Fatalf("bundle: %v", err)
	}
	if err := alice.messages.Establish(ctx, bob.address(), bundle); err != nil {
		t.Fatalf("establish: %v", err)
	}

	msgs := [][]byte{[]byte("one"), []byte("two"), []byte("three")}
	for i, m := range msgs {
		env, err := alice.messages.Encrypt(ctx, bob.address(), m)
		if err != nil {
			t.Fatalf("encrypt %d: %v", i, err)
		}
		got, err := bob.messages.Decrypt(ctx, alice.address(), env)
		if err != nil {
			t.Fatalf("decrypt %d: %v", i, err)
		}
		if !bytes.Equal(got, m) {
			t.Fatalf("message %d read %q, want %q", i, got, m)
		}
	}
}

func TestEndSession_RemovesAllDevices(t *testing.T) {
	ctx := context.Background()
	alice := newParty(t, "alice")
	bob := newParty(t, "bob")

	bundle, err := bob.account.Bundle(ctx)
	if err != nil {
		t.Fatalf("bundle: %v", err)
	}
	if err := alice.messages.Establish(ctx, bob.address(), bundle); err != nil {
		t.Fatalf("establish: %v", err)
	}
	if ok, _ := alice.messages.HasSession(ctx, bob.address()); !ok {
		t.Fatal("no session after establish")
	}

	if err := alice.messages.EndSession("bob"); err != nil {
		t.Fatalf("end session: %v", err)
	}
	if ok, _ := alice.messages.HasSession(ctx, bob.address()); ok {
		t.Fatal("session survived EndSession")
	}
}
