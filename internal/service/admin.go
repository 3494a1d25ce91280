package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"

	"github.com/comfykit/studio-ui/internal/apiclient"
)

// AdminServiceOptions groups dependencies for AdminService.
type AdminServiceOptions struct {
	Client *apiclient.Client
	Logger *slog.Logger
}

// AdminService proxies the backend's admin endpoints for user and access code
// management. Payloads pass through as raw JSON: the backend owns these
// schemas and the UI should keep working when they grow fields.
type AdminService struct {
	client *apiclient.Client
	logger *slog.Logger
}

// NewAdminService constructs a new AdminService.
func NewAdminService(opts AdminServiceOptions) *AdminService {
	if opts.Client == nil {
		panic("service: AdminService requires a backend client")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminService{client: opts.Client, logger: logger}
}

// ListUsers returns the backend's user list verbatim.
func (s *AdminService) ListUsers(ctx context.Context, token apiclient.TokenSource) (json.RawMessage, error) {
	var users json.RawMessage
	if err := s.client.GetJSON(ctx, "/auth/admin/users", token, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser forwards a user creation payload.
func (s *AdminService) CreateUser(ctx context.Context, token apiclient.TokenSource, payload json.RawMessage) (json.RawMessage, error) {
	var created json.RawMessage
	if err := s.client.PostJSON(ctx, "/auth/admin/users", payload, token, &created); err != nil {
		return nil, err
	}
	s.logger.Info("admin created user")
	return created, nil
}

// DeleteUser removes a user by name.
func (s *AdminService) DeleteUser(ctx context.Context, token apiclient.TokenSource, username string) error {
	if username == "" {
		return errors.New("username is required")
	}
	if err := s.client.Delete(ctx, "/auth/admin/users/"+url.PathEscape(username), token); err != nil {
		return err
	}
	s.logger.Info("admin deleted user", "username", username)
	return nil
}

// ListCodes returns the backend's access code list verbatim.
func (s *AdminService) ListCodes(ctx context.Context, token apiclient.TokenSource) (json.RawMessage, error) {
	var codes json.RawMessage
	if err := s.client.GetJSON(ctx, "/auth/admin/codes", token, &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

// CreateCode forwards an access code creation payload.
func (s *AdminService) CreateCode(ctx context.Context, token apiclient.TokenSource, payload json.RawMessage) (json.RawMessage, error) {
	var created json.RawMessage
	if err := s.client.PostJSON(ctx, "/auth/admin/codes", payload, token, &created); err != nil {
		return nil, err
	}
	s.logger.Info("admin created access code")
	return created, nil
}

// RevokeCode revokes an access code by id.
func (s *AdminService) RevokeCode(ctx context.Context, token apiclient.TokenSource, codeID string) error {
	if codeID == "" {
		return errors.New("code id is required")
	}
	if err := s.client.Delete(ctx, "/auth/admin/codes/"+url.PathEscape(codeID), token); err != nil {
		return err
	}
	s.logger.Info("admin revoked access code", "code_id", codeID)
	return nil
}
