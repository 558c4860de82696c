package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	usersFileName     = "users.json"
	minPasswordLength = 8
)

var (
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type account struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func (m *Manager) usersPath() string { return filepath.Join(m.dir, usersFileName) }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a local account.
func (m *Manager) Register(email, password string) error {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") || len(password) < minPasswordLength {
		return ErrInvalidCredentials
	}
	users, err := m.loadUsers()
	if err != nil {
		return err
	}
	if _, ok := users[email]; ok {
		return ErrAccountExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	users[email] = account{Email: email, PasswordHash: string(hash), CreatedAt: m.now()}
	return m.saveUsers(users)
}

// SignIn checks the credentials and persists a fresh session.
func (m *Manager) SignIn(email, password string) (*Session, error) {
	email = normalizeEmail(email)
	users, err := m.loadUsers()
	if err != nil {
		return nil, err
	}
	acct, ok := users[email]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := m.now()
	s := &Session{
		Email:     email,
		Token:     uuid.NewString(),
		Source:    "file",
		CreatedAt: now,
	}
	if m.ttl > 0 {
		exp := now.Add(m.ttl)
		s.ExpiresAt = &exp
	}
	if err := m.saveSession(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (m *Manager) loadUsers() (map[string]account, error) {
	users := map[string]account{}
	b, err := os.ReadFile(m.usersPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return users, nil
		}
		return nil, fmt.Errorf("read users: %w", err)
	}
	if err := json.Unmarshal(b, &users); err != nil {
		return nil, fmt.Errorf("parse users: %w", err)
	}
	if users == nil {
		users = map[string]account{}
	}
	return users, nil
}

func (m *Manager) saveUsers(users map[string]account) error {
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(m.usersPath(), b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}
