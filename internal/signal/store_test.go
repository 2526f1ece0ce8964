package signal_test

import (
	"bytes"
	"context"
	"testing"

	"go.mau.fi/libsignal/keys/message"
	"go.mau.fi/libsignal/protocol"
	"go.mau.fi/libsignal/serialize"
	"go.mau.fi/libsignal/util/keyhelper"

	"sigvault/internal/domain"
	"sigvault/internal/signal"
	"sigvault/internal/store"
)

func newStore() (*signal.Store, *store.Memory, *serialize.Serializer) {
	creds := store.NewMemory()
	serializer := serialize.NewJSONSerializer()
	return signal.NewStore(creds, serializer), creds, serializer
}

func TestIdentityKeyPair_RoundTripThroughAdapter(t *testing.T) {
	adapter, creds, _ := newStore()

	if adapter.GetIdentityKeyPair() != nil {
		t.Fatal("expected nil identity before initialization")
	}

	kp, err := keyhelper.GenerateIdentityKeyPair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	pub := kp.PublicKey().PublicKey().PublicKey()
	priv := kp.PrivateKey().Serialize()
	if err := creds.SetIdentityKeyPair(domain.KeyPair{Public: pub[:], Private: priv[:]}); err != nil {
		t.Fatalf("set: %v", err)
	}

	got := adapter.GetIdentityKeyPair()
	if got == nil {
		t.Fatal("adapter returned nil identity")
	}
	if !bytes.Equal(got.PublicKey().Serialize(), kp.PublicKey().Serialize()) {
		t.Fatal("identity public key changed through the adapter")
	}
}

func TestPreKey_RoundTripThroughAdapter(t *testing.T) {
	ctx := context.Background()
	adapter, _, serializer := newStore()

	// The arguments are an inclusive id range, so this yields exactly one
	// pre-key with id 10.
	preKeys, err := keyhelper.GeneratePreKeys(10, 10, serializer.PreKeyRecord)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(preKeys) != 1 {
		t.Fatalf("expected one generated pre-key, got %d", len(preKeys))
	}
	pk := preKeys[0]

	if err := adapter.StorePreKey(ctx, pk.ID().Value, pk); err != nil {
		t.Fatalf("store: %v", err)
	}
	ok, err := adapter.ContainsPreKey(ctx, pk.ID().Value)
	if err != nil || !ok {
		t.Fatalf("contains: ok=%v err=%v", ok, err)
	}

	got, err := adapter.LoadPreKey(ctx, pk.ID().Value)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil {
		t.Fatal("load returned nil for stored pre-key")
	}
	if !bytes.Equal(
		got.KeyPair().PublicKey().Serialize(),
		pk.KeyPair().PublicKey().Serialize(),
	) {
		t.Fatal("pre-key public half changed through the adapter")
	}

	if err := adapter.RemovePreKey(ctx, pk.ID().Value); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got, _ := adapter.LoadPreKey(ctx, pk.ID().Value); got != nil {
		t.Fatal("pre-key survived removal")
	}
}

func TestSignedPreKey_RoundTripThroughAdapter(t *testing.T) {
	ctx := context.Background()
	adapter, _, serializer := newStore()

	identityKeyPair, err := keyhelper.GenerateIdentityKeyPair()
	if err != nil {
		t.Fatalf("generate identity: %v", err)
	}
	spk, err := keyhelper.GenerateSignedPreKey(identityKeyPair, 7, serializer.SignedPreKeyRecord)
	if err != nil {
		t.Fatalf("generate signed pre-key: %v", err)
	}

	if err := adapter.StoreSignedPreKey(ctx, spk.ID(), spk); err != nil {
		t.Fatalf("store: %v", err)
	}
	got, err := adapter.LoadSignedPreKey(ctx, spk.ID())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil {
		t.Fatal("load returned nil for stored signed pre-key")
	}
	gotSig, wantSig := got.Signature(), spk.Signature()
	if !bytes.Equal(gotSig[:], wantSig[:]) {
		t.Fatal("signature changed through the adapter")
	}

	all, err := adapter.LoadSignedPreKeys(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("load all: n=%d err=%v", len(all), err)
	}
}

func TestLoadSession_FreshWhenAbsent(t *testing.T) {
	ctx := context.Background()
	adapter, _, _ := newStore()

	addr := protocol.NewSignalAddress("bob", 1)
	sess, err := adapter.LoadSession(ctx, addr)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sess == nil {
		t.Fatal("expected a fresh session record, got nil")
	}
	if ok, _ := adapter.ContainsSession(ctx, addr); ok {
		t.Fatal("loading must not create a session")
	}
}

func TestMessageKey_RoundTripThroughAdapter(t *testing.T) {
	ctx := context.Background()
	adapter, _, _ := newStore()

	keys := message.NewKeys(
		[]byte{1, 2, 3},
		[]byte{4, 5, 6},
		[]byte{7, 8, 9},
		11,
	)
	if err := adapter.StoreMessageKey(ctx, 42, keys); err != nil {
		t.Fatalf("store: %v", err)
	}
	ok, err := adapter.ContainsMessageKey(ctx, 42)
	if err != nil || !ok {
		t.Fatalf("contains: ok=%v err=%v", ok, err)
	}

	got, err := adapter.LoadMessageKey(ctx, 42)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil {
		t.Fatal("load returned nil for stored message key")
	}
	if !bytes.Equal(got.CipherKey(), keys.CipherKey()) ||
		!bytes.Equal(got.MacKey(), keys.MacKey()) ||
		!bytes.Equal(got.Iv(), keys.Iv()) ||
		got.Index() != keys.Index() {
		t.Fatal("message key material changed through the adapter")
	}

	if err := adapter.RemoveMessageKey(ctx, 42); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got, _ := adapter.LoadMessageKey(ctx, 42); got != nil {
		t.Fatal("message key survived removal")
	}
}

func TestSaveIdentity_NotifiesOnReplacement(t *testing.T) {
	ctx := context.Background()
	adapter, _, _ := newStore()

	var changed []domain.PeerAddress
	adapter.IdentityChanged = func(addr domain.PeerAddress) {
		changed = append(changed, addr)
	}

	k1, err := keyhelper.GenerateIdentityKeyPair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	k2, err := keyhelper.GenerateIdentityKeyPair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	addr := protocol.NewSignalAddress("bob", 1)
	if err := adapter.SaveIdentity(ctx, addr, k1.PublicKey()); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if len(changed) != 0 {
		t.Fatal("first save must not notify")
	}

	if err := adapter.SaveIdentity(ctx, addr, k2.PublicKey()); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if len(changed) != 1 || changed[0].Name != "bob" {
		t.Fatalf("expected one notification for bob, got %v", changed)
	}

	trusted, err := adapter.IsTrustedIdentity(ctx, addr, k2.PublicKey())
	if err != nil || !trusted {
		t.Fatalf("current key should be trusted: ok=%v err=%v", trusted, err)
	}
	trusted, err = adapter.IsTrustedIdentity(ctx, addr, k1.PublicKey())
	if err != nil || trusted {
		t.Fatalf("replaced key must not be trusted: ok=%v err=%v", trusted, err)
	}
}
