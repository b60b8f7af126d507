package core

import (
	"context"
	"crypto/subtle"

	"github.com/JonMunkholm/vetimport/internal/logging"
)

// SecurityGate checks the caller secret before any row is touched.
// It is built once from startup configuration and never changes.
type SecurityGate struct {
	secret string
}

// NewSecurityGate returns a gate for secret. An empty secret disables the gate.
func NewSecurityGate(secret string) SecurityGate {
	return SecurityGate{secret: secret}
}

// Enabled reports whether a secret is configured.
func (g SecurityGate) Enabled() bool {
	return g.secret != ""
}

// Check returns an AuthorizationError when a secret is configured and
// callerSecret is missing or differs. Only presence and length are logged.
func (g SecurityGate) Check(ctx context.Context, callerSecret string) error {
	logger := logging.FromContext(ctx)
	logger.Debug("security gate",
		"secret_configured", g.Enabled(),
		"caller_secret_present", callerSecret != "",
		"caller_secret_length", len(callerSecret),
	)

	if !g.Enabled() {
		return nil
	}

	if callerSecret == "" {
		logger.Warn("import rejected: caller secret missing")
		return &AuthorizationError{Missing: true}
	}

	// Constant-time compare; a length mismatch also reports false.
	if subtle.ConstantTimeCompare([]byte(callerSecret), []byte(g.secret)) != 1 {
		logger.Warn("import rejected: caller secret mismatch",
			"caller_secret_length", len(callerSecret),
		)
		return &AuthorizationError{}
	}

	return nil
}
