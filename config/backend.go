package config

import "strings"

// BackendConfig describes how to reach the workflow-execution backend.
// All user actions are proxied to this service; studio-ui holds no state
// of its own.
type BackendConfig struct {
	// Origin is the backend origin (scheme://host:port). A full origin
	// override for non-default deployments.
	Origin string `env:"API_BASE_URL" envDefault:"http://127.0.0.1:1145"`

	// BasePath is the API prefix appended to Origin.
	BasePath string `env:"API_BASE_PATH" envDefault:"/api/v1"`
}

// Sanitize normalizes origin/base-path separators so BaseURL joins cleanly.
func (b *BackendConfig) Sanitize() {
	b.Origin = strings.TrimRight(b.Origin, "/")
	if b.BasePath != "" && !strings.HasPrefix(b.BasePath, "/") {
		b.BasePath = "/" + b.BasePath
	}
	b.BasePath = strings.TrimRight(b.BasePath, "/")
}

// BaseURL returns the joined backend API base URL, e.g.
// "http://127.0.0.1:1145/api/v1".
func (b BackendConfig) BaseURL() string {
	return strings.TrimRight(b.Origin, "/") + b.BasePath
}
