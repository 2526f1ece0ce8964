package account_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"go.mau.fi/libsignal/serialize"

	"sigvault/internal/services/account"
	"sigvault/internal/signal"
	"sigvault/internal/store"
)

func newService() (*account.Service, *store.Memory) {
	creds := store.NewMemory()
	serializer := serialize.NewJSONSerializer()
	proto := signal.NewStore(creds, serializer)
	return account.New(creds, proto, serializer, 1, zerolog.Nop()), creds
}

func TestInitialize_PopulatesStore(t *testing.T) {
	ctx := context.Background()
	svc, creds := newService()

	if err := svc.Initialize(ctx, 5); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if _, ok, _ := creds.IdentityKeyPair(); !ok {
		t.Fatal("identity key pair not stored")
	}
	if _, ok, _ := creds.RegistrationID(); !ok {
		t.Fatal("registration id not stored")
	}
	pks, err := creds.PreKeys()
	if err != nil || len(pks) != 5 {
		t.Fatalf("expected 5 pre-keys, got %d (err=%v)", len(pks), err)
	}
	spks, err := creds.LoadSignedPreKeys()
	if err != nil || len(spks) != 1 {
		t.Fatalf("expected 1 signed pre-key, got %d (err=%v)", len(spks), err)
	}
	if len(spks[0].Signature) != 64 {
		t.Fatalf("signed pre-key signature of %d bytes", len(spks[0].Signature))
	}
}

func TestBundle_RequiresInitialization(t *testing.T) {
	svc, _ := newService()
	if _, err := svc.Bundle(context.Background()); !errors.Is(err, account.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
}

func TestBundle_AdvertisesStoredMaterial(t *testing.T) {
	ctx := context.Background()
	svc, creds := newService()

	if err := svc.Initialize(ctx, 3); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	bundle, err := svc.Bundle(ctx)
	if err != nil {
		t.Fatalf("bundle: %v", err)
	}

	regID, _, _ := creds.RegistrationID()
	if bundle.RegistrationID() != regID {
		t.Fatalf("bundle registration id %d, store has %d", bundle.RegistrationID(), regID)
	}
	if bundle.PreKeyID().IsEmpty {
		t.Fatal("bundle advertises no one-time pre-key")
	}
	if ok, _ := creds.ContainsPreKey(bundle.PreKeyID().Value); !ok {
		t.Fatal("advertised pre-key is not in the store")
	}
}

func TestRotateSignedPreKey_KeepsPredecessor(t *testing.T) {
	ctx := context.Background()
	svc, creds := newService()

	if err := svc.Initialize(ctx, 2); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	id2, err := svc.RotateSignedPreKey(ctx)
	if err != nil {
		t.Fatalf("first rotation: %v", err)
	}
	id3, err := svc.RotateSignedPreKey(ctx)
	if err != nil {
		t.Fatalf("second rotation: %v", err)
	}
	if id3 != id2+1 {
		t.Fatalf("ids not sequential: %d then %d", id2, id3)
	}

	spks, err := creds.LoadSignedPreKeys()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(spks) != 2 {
		t.Fatalf("expected current+previous signed pre-keys, got %d", len(spks))
	}
	if spks[0].ID != id2 || spks[1].ID != id3 {
		t.Fatalf("unexpected survivors: %d, %d", spks[0].ID, spks[1].ID)
	}
}

func TestFingerprint_StableForSameIdentity(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	if _, err := svc.Fingerprint(); !errors.Is(err, account.ErrNotInitialized) {
		t.Fatal("expected ErrNotInitialized before init")
	}
	if err := svc.Initialize(ctx, 1); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	fp1, err := svc.Fingerprint()
	if err != nil || fp1 == "" {
		t.Fatalf("fingerprint: %q err=%v", fp1, err)
	}
	fp2, _ := svc.Fingerprint()
	if fp1 != fp2 {
		t.Fatal("fingerprint changed without a key change")
	}
}
