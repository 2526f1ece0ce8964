package app

import (
	"go.mau.fi/libsignal/serialize"

	"sigvault/internal/domain"
	"sigvault/internal/services/account"
	"sigvault/internal/services/messaging"
	"sigvault/internal/signal"
	"sigvault/internal/store"
)

// Party bundles the store and services of one logical identity.
type Party struct {
	Name     string
	Creds    domain.CredentialStore
	Proto    *signal.Store
	Account  *account.Service
	Messages *messaging.Service
}

// NewParty constructs the dependency graph for one identity.
func NewParty(name string, cfg Config) *Party {
	cfg = cfg.Defaults()
	log := cfg.Log.With().Str("party", name).Logger()

	// In-memory store and its protocol-facing adapter.
	creds := store.NewMemory()
	serializer := serialize.NewJSONSerializer()
	proto := signal.NewStore(creds, serializer)
	proto.IdentityChanged = func(addr domain.PeerAddress) {
		log.Warn().
			Stringer("peer", addr).
			Msg("pinned identity key replaced; verify the peer out of band")
	}

	// High-level services.
	accountSvc := account.New(creds, proto, serializer, cfg.DeviceID, log)
	messageSvc := messaging.New(proto, serializer, log)

	return &Party{
		Name:     name,
		Creds:    creds,
		Proto:    proto,
		Account:  accountSvc,
		Messages: messageSvc,
	}
}

// Address returns the party's own address at the given device.
func (p *Party) Address(deviceID uint32) domain.PeerAddress {
	return domain.NewPeerAddress(p.Name, deviceID)
}
