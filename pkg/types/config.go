package types

import "errors"

// Config holds backend selection and parameters for Store.Attach.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// InvitationTTLHours is how long a pending invitation stays valid.
	// Zero selects DefaultInvitationTTLHours.
	InvitationTTLHours int `json:"invitation_ttl_hours,omitempty" yaml:"invitation_ttl_hours,omitempty"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// DefaultInvitationTTLHours is one week.
const DefaultInvitationTTLHours = 168

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrTTLInvalid     = errors.New("invitation ttl must not be negative")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.InvitationTTLHours < 0 {
		return ErrTTLInvalid
	}
	return nil
}

// InvitationTTL returns the configured TTL in hours, applying the default.
func (c Config) InvitationTTL() int {
	if c.InvitationTTLHours == 0 {
		return DefaultInvitationTTLHours
	}
	return c.InvitationTTLHours
}
