package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.mau.fi/libsignal/ecc"
	"go.mau.fi/libsignal/keys/prekey"
	"go.mau.fi/libsignal/serialize"
	"go.mau.fi/libsignal/util/keyhelper"
	"go.mau.fi/libsignal/util/optional"

	"sigvault/internal/crypto"
	"sigvault/internal/domain"
	"sigvault/internal/signal"
)

var (
	// ErrNotInitialized is returned when credential material is requested
	// before Initialize has run.
	ErrNotInitialized = errors.New("account not initialized")

	// ErrNoPreKeys is returned when bundle assembly finds no one-time
	// pre-keys left to advertise.
	ErrNoPreKeys = errors.New("no one-time pre-keys remaining")
)

// Service creates and serves the local party's credential material.
//
// The material mirrors what a Signal client generates at install time:
//   - Long-term identity key pair and registration id.
//   - A batch of one-time pre-keys, consumed one per inbound session.
//   - A signed pre-key, rotated periodically.
type Service struct {
	creds      domain.CredentialStore
	proto      *signal.Store
	serializer *serialize.Serializer
	deviceID   uint32
	log        zerolog.Logger
}

// New returns an account service persisting through creds and proto.
func New(
	creds domain.CredentialStore,
	proto *signal.Store,
	serializer *serialize.Serializer,
	deviceID uint32,
	log zerolog.Logger,
) *Service {
	return &Service{
		creds:      creds,
		proto:      proto,
		serializer: serializer,
		deviceID:   deviceID,
		log:        log,
	}
}

// Initialize generates and persists a fresh set of credentials: identity
// key pair, registration id, preKeyCount one-time pre-keys and the first
// signed pre-key. Calling it twice replaces the previous account.
func (s *Service) Initialize(ctx context.Context, preKeyCount int) error {
	if preKeyCount <= 0 {
		return fmt.Errorf("%w: pre-key count %d", domain.ErrInvalidArgument, preKeyCount)
	}

	identityKeyPair, err := keyhelper.GenerateIdentityKeyPair()
	if err != nil {
		return err
	}
	pub := identityKeyPair.PublicKey().PublicKey().PublicKey()
	priv := identityKeyPair.PrivateKey().Serialize()
	if err := s.creds.SetIdentityKeyPair(domain.KeyPair{Public: pub[:], Private: priv[:]}); err != nil {
		return err
	}

	if err := s.creds.SetRegistrationID(keyhelper.GenerateRegistrationID()); err != nil {
		return err
	}

	// GeneratePreKeys takes an inclusive id range, not a count; starting
	// at 1 the end id equals the number of keys.
	preKeys, err := keyhelper.GeneratePreKeys(1, preKeyCount, s.serializer.PreKeyRecord)
	if err != nil {
		return err
	}
	for _, pk := range preKeys {
		if err := s.proto.StorePreKey(ctx, pk.ID().Value, pk); err != nil {
			return err
		}
	}

	signedPreKey, err := keyhelper.GenerateSignedPreKey(identityKeyPair, 1, s.serializer.SignedPreKeyRecord)
	if err != nil {
		return err
	}
	if err := s.proto.StoreSignedPreKey(ctx, signedPreKey.ID(), signedPreKey); err != nil {
		return err
	}

	s.log.Debug().
		Int("pre_keys", preKeyCount).
		Uint32("signed_pre_key_id", signedPreKey.ID()).
		Msg("account initialized")
	return nil
}

// Bundle assembles the publishable pre-key bundle: identity key,
// registration id, the lowest remaining one-time pre-key and the current
// signed pre-key with its signature.
func (s *Service) Bundle(ctx context.Context) (*prekey.Bundle, error) {
	identityKeyPair := s.proto.GetIdentityKeyPair()
	if identityKeyPair == nil {
		return nil, ErrNotInitialized
	}
	registrationID := s.proto.GetLocalRegistrationID()

	preKeys, err := s.creds.PreKeys()
	if err != nil {
		return nil, err
	}
	if len(preKeys) == 0 {
		return nil, ErrNoPreKeys
	}
	oneTime := preKeys[0]
	oneTimePub, err := publicKey(oneTime.KeyPair)
	if err != nil {
		return nil, err
	}

	signedPreKey, err := s.currentSignedPreKey()
	if err != nil {
		return nil, err
	}
	signedPub, err := publicKey(signedPreKey.KeyPair)
	if err != nil {
		return nil, err
	}
	var sig [64]byte
	if len(signedPreKey.Signature) != len(sig) {
		return nil, fmt.Errorf("%w: signed pre-key signature of %d bytes", domain.ErrCorruptState, len(signedPreKey.Signature))
	}
	copy(sig[:], signedPreKey.Signature)

	return prekey.NewBundle(
		registrationID,
		s.deviceID,
		optional.NewOptionalUint32(oneTime.ID),
		signedPreKey.ID,
		oneTimePub,
		signedPub,
		sig,
		identityKeyPair.PublicKey(),
	), nil
}

// RotateSignedPreKey generates the next signed pre-key and removes all but
// the current and previous ones, keeping the predecessor for messages still
// in flight. It returns the new key's id.
func (s *Service) RotateSignedPreKey(ctx context.Context) (uint32, error) {
	identityKeyPair := s.proto.GetIdentityKeyPair()
	if identityKeyPair == nil {
		return 0, ErrNotInitialized
	}

	existing, err := s.creds.LoadSignedPreKeys()
	if err != nil {
		return 0, err
	}
	var nextID uint32 = 1
	if n := len(existing); n > 0 {
		nextID = existing[n-1].ID + 1
	}

	signedPreKey, err := keyhelper.GenerateSignedPreKey(identityKeyPair, nextID, s.serializer.SignedPreKeyRecord)
	if err != nil {
		return 0, err
	}
	if err := s.proto.StoreSignedPreKey(ctx, signedPreKey.ID(), signedPreKey); err != nil {
		return 0, err
	}

	// Drop everything older than the predecessor.
	if len(existing) > 1 {
		for _, spk := range existing[:len(existing)-1] {
			if err := s.creds.RemoveSignedPreKey(spk.ID); err != nil {
				return 0, err
			}
		}
	}

	s.log.Debug().Uint32("signed_pre_key_id", nextID).Msg("signed pre-key rotated")
	return nextID, nil
}

// Fingerprint returns a short hex fingerprint of the local identity public
// key for display and out-of-band verification.
func (s *Service) Fingerprint() (string, error) {
	kp, ok, err := s.creds.IdentityKeyPair()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotInitialized
	}
	return crypto.Fingerprint(kp.Public), nil
}

// currentSignedPreKey returns the newest stored signed pre-key.
func (s *Service) currentSignedPreKey() (domain.SignedPreKey, error) {
	spks, err := s.creds.LoadSignedPreKeys()
	if err != nil {
		return domain.SignedPreKey{}, err
	}
	if len(spks) == 0 {
		return domain.SignedPreKey{}, ErrNotInitialized
	}
	return spks[len(spks)-1], nil
}

func publicKey(kp domain.KeyPair) (ecc.ECPublicKeyable, error) {
	if len(kp.Public) != 32 {
		return nil, fmt.Errorf("%w: public key of %d bytes, want 32", domain.ErrCorruptState, len(kp.Public))
	}
	var pub [32]byte
	copy(pub[:], kp.Public)
	return ecc.NewDjbECPublicKey(pub), nil
}
