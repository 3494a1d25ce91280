package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/comfykit/studio-ui/internal/apiclient"
	"github.com/comfykit/studio-ui/internal/domain/auth"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Client *apiclient.Client
	Logger *slog.Logger
}

// AuthService orchestrates authentication against the workflow backend:
// credential exchange for a bearer token, identity lookup, and the admin
// reachability probe. It holds no session state; every call carries its own
// token source.
type AuthService struct {
	client *apiclient.Client
	logger *slog.Logger
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	if opts.Client == nil {
		panic("service: AuthService requires a backend client")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{client: opts.Client, logger: logger}
}

// TokenResponse is the backend's token grant.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// AuthResult is a completed login: the granted token plus the identity the
// backend reports for it.
type AuthResult struct {
	Token     string
	ExpiresIn int
	Claims    *auth.Claims
}

// LoginPassword exchanges a username and password for a token and resolves
// the resulting identity.
func (s *AuthService) LoginPassword(ctx context.Context, username, password string) (*AuthResult, error) {
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}
	return s.login(ctx, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
}

// LoginCode exchanges a one-time access code for a token and resolves the
// resulting identity.
func (s *AuthService) LoginCode(ctx context.Context, code string) (*AuthResult, error) {
	if code == "" {
		return nil, errors.New("access code is required")
	}
	return s.login(ctx, "/auth/code", map[string]string{"code": code})
}

func (s *AuthService) login(ctx context.Context, path string, body map[string]string) (*AuthResult, error) {
	var grant TokenResponse
	if err := s.client.PostJSON(ctx, path, body, apiclient.None, &grant); err != nil {
		return nil, err
	}
	if grant.AccessToken == "" {
		return nil, fmt.Errorf("token grant from %s carried no access token", path)
	}

	claims, err := s.GetMe(ctx, apiclient.Static(grant.AccessToken))
	if err != nil {
		return nil, fmt.Errorf("resolve identity for fresh token: %w", err)
	}

	s.logger.Info("login completed", "sub", claims.Subject, "login_mode", claims.LoginMode)
	return &AuthResult{
		Token:     grant.AccessToken,
		ExpiresIn: grant.ExpiresIn,
		Claims:    claims,
	}, nil
}

// GetMe fetches the identity claims the backend associates with the token.
func (s *AuthService) GetMe(ctx context.Context, token apiclient.TokenSource) (*auth.Claims, error) {
	var claims auth.Claims
	if err := s.client.GetJSON(ctx, "/auth/me", token, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

// AdminPing is the backend's confirmation that the caller may use the admin
// surface.
type AdminPing struct {
	OK  bool   `json:"ok"`
	Sub string `json:"sub"`
}

// PingAdmin probes the backend's admin surface with the caller's token. The
// backend, not this service, decides admin access; an AuthError or 403 here
// means the token does not carry it.
func (s *AuthService) PingAdmin(ctx context.Context, token apiclient.TokenSource) (*AdminPing, error) {
	var ping AdminPing
	if err := s.client.GetJSON(ctx, "/auth/admin/ping", token, &ping); err != nil {
		return nil, err
	}
	return &ping, nil
}

