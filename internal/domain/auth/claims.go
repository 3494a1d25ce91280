package auth

// Package auth contains domain-level types for identity and authorization.
// It is pure and free of transport/adapter concerns.

import (
	"encoding/json"
	"time"
)

// LoginMode identifies how a session was established.
type LoginMode string

const (
	LoginModePassword LoginMode = "password"
	LoginModeCode     LoginMode = "code"
)

// Claims is the decoded identity record returned by the auth backend.
// The schema is open: fields the backend adds beyond the known set are
// preserved in Extra so callers can round-trip them.
type Claims struct {
	Subject     string   `json:"sub"`
	LoginMode   string   `json:"login_mode,omitempty"`
	IssuedAt    int64    `json:"iat,omitempty"`
	ExpiresAt   int64    `json:"exp,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	Groups      []string `json:"groups,omitempty"`
	Permissions []string `json:"permissions,omitempty"`

	Extra map[string]any `json:"-"`
}

// knownClaimKeys are the fields decoded into named Claims fields; everything
// else lands in Extra.
var knownClaimKeys = map[string]struct{}{
	"sub": {}, "login_mode": {}, "iat": {}, "exp": {},
	"roles": {}, "groups": {}, "permissions": {},
}

type claimsAlias Claims

// UnmarshalJSON decodes known fields into the struct and keeps the rest
// in Extra.
func (c *Claims) UnmarshalJSON(data []byte) error {
	var known claimsAlias
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for k := range knownClaimKeys {
		delete(all, k)
	}
	if len(all) == 0 {
		all = nil
	}

	*c = Claims(known)
	c.Extra = all
	return nil
}

// MarshalJSON emits the known fields plus any Extra entries.
func (c Claims) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(claimsAlias(c))
	if err != nil {
		return nil, err
	}
	if len(c.Extra) == 0 {
		return base, nil
	}

	var merged map[string]any
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range c.Extra {
		if _, known := knownClaimKeys[k]; known {
			continue
		}
		merged[k] = v
	}
	return json.Marshal(merged)
}

// Expiry returns the claims expiry instant, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c == nil || c.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.Unix(c.ExpiresAt, 0).UTC()
}

// DisplayName returns a short label for the subject, preferring a
// backend-provided "name" extra claim.
func (c *Claims) DisplayName() string {
	if c == nil {
		return ""
	}
	if name, ok := c.Extra["name"].(string); ok && name != "" {
		return name
	}
	return c.Subject
}
