package domain

import "encoding/json"

// Config is a free-form JSON configuration blob
// (project processing config, source API-connection config, schema definition).
type Config map[string]any

// Clone returns a deep copy of the config via a JSON round-trip.
//
// Clone of a nil Config is nil.
func (c Config) Clone() (Config, error) {
	if c == nil {
		return nil, nil
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var out Config
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Identity is the caller identity resolved from a bearer credential.
//
// The core trusts it verbatim and never re-derives it.
type Identity struct {
	UserId         string
	OrganisationId string
	Role           UserRole
}
