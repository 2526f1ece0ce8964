package app

import "github.com/rs/zerolog"

// Config holds runtime wiring options for building a party.
type Config struct {
	DeviceID uint32         // device id advertised in bundles, e.g. 1
	Log      zerolog.Logger // base logger; party name is attached per party
}

// Defaults fills unset fields with working values.
func (c Config) Defaults() Config {
	if c.DeviceID == 0 {
		c.DeviceID = 1
	}
	return c
}
