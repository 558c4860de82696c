package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	sessionFileName = "session.json"
	// TokenEnv overrides the session file when set.
	TokenEnv = "AMPED_TOKEN"
)

var (
	ErrNotSignedIn    = errors.New("not signed in")
	ErrSessionExpired = errors.New("session expired")
)

type Session struct {
	Email     string     `json:"email"`
	Token     string     `json:"token"`
	Source    string     `json:"source"`     // "env" | "file"
	CreatedAt time.Time  `json:"created_at"` // when we saved to file
	ExpiresAt *time.Time `json:"expires_at"` // optional
}

// Label is the identity shown to the user.
func (s *Session) Label() string {
	if s == nil || strings.TrimSpace(s.Email) == "" {
		return "unknown"
	}
	return s.Email
}

func (s *Session) expired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// Cache is whatever holds data that must not outlive the session.
type Cache interface {
	Clear(ctx context.Context) error
}

// Manager owns the credentials directory.
type Manager struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewManager stores accounts and the session under dir. A zero ttl means
// sessions never expire.
func NewManager(dir string, ttl time.Duration) *Manager {
	return &Manager{dir: dir, ttl: ttl, now: time.Now}
}

func (m *Manager) sessionPath() string { return filepath.Join(m.dir, sessionFileName) }

// Current returns the active session, or nil when signed out.
func (m *Manager) Current() (*Session, error) {
	// 1) env override
	env := strings.TrimSpace(os.Getenv(TokenEnv))
	if env != "" {
		token := stripBearer(env)
		return &Session{Token: token, Source: "env", Email: emailFromJWT(token)}, nil
	}

	// 2) file
	b, err := os.ReadFile(m.sessionPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil // not signed in
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	s.Token = stripBearer(s.Token)
	return &s, nil
}

// Require is the gate: it returns a usable session or the reason there is none.
func (m *Manager) Require() (*Session, error) {
	s, err := m.Current()
	if err != nil {
		return nil, err
	}
	if s == nil || strings.TrimSpace(s.Token) == "" {
		return nil, ErrNotSignedIn
	}
	if s.expired(m.now()) {
		return nil, ErrSessionExpired
	}
	return s, nil
}

func (m *Manager) saveSession(s *Session) error {
	// ensure the dir exists with 0700
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	// write with 0600 (owner-only)
	if err := os.WriteFile(m.sessionPath(), b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// SignOut clears cache first and only then forgets the session, so a failed
// clear leaves the user signed in rather than leaving their data behind.
// It reports false when the session comes from the environment and cannot
// be removed.
func (m *Manager) SignOut(ctx context.Context, cache Cache) (bool, error) {
	if cache != nil {
		if err := cache.Clear(ctx); err != nil {
			return false, fmt.Errorf("clear cache: %w", err)
		}
	}
	if strings.TrimSpace(os.Getenv(TokenEnv)) != "" {
		return false, nil
	}
	if err := os.Remove(m.sessionPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("remove: %w", err)
	}
	return true, nil
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}

// DecodeJWTPayload returns the (unverified) payload of a JWT, or false for
// opaque tokens.
func DecodeJWTPayload(token string) (string, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", false
	}
	payload := strings.TrimRight(parts[1], "=")
	dec, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", false
	}
	return string(dec), true
}

func emailFromJWT(token string) string {
	p, ok := DecodeJWTPayload(token)
	if !ok {
		return ""
	}
	var claims struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal([]byte(p), &claims); err != nil {
		return ""
	}
	return claims.Email
}
