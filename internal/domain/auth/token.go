package auth

import (
	"encoding/json"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// DecodeToken decodes the claims embedded in a JWT WITHOUT verifying its
// signature. The backend is the only party that verifies tokens; this
// decode exists so the UI can display session facts (subject, expiry)
// when the identity endpoint has not been consulted. Never use the result
// for authorization decisions.
func DecodeToken(token string) (*Claims, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type %T", parsed.Claims)
	}

	raw, err := json.Marshal(map[string]any(mapClaims))
	if err != nil {
		return nil, fmt.Errorf("marshal claims: %w", err)
	}

	var claims Claims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	return &claims, nil
}
