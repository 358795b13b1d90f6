package escuela

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session supplies the bearer token used by authenticated calls.
// Token returns an empty string when no user is logged in.
type Session interface {
	Token() string
}

// TokenStore is a Session that can be written by Login and cleared by Logout.
type TokenStore interface {
	Session
	SetToken(tok string) error
	Clear() error
}

// MemorySession keeps the token in process memory.
type MemorySession struct {
	mu  sync.RWMutex
	tok string
}

// NewMemorySession returns a MemorySession holding tok.
func NewMemorySession(tok string) *MemorySession { return &MemorySession{tok: tok} }

func (s *MemorySession) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tok
}

func (s *MemorySession) SetToken(tok string) error {
	s.mu.Lock()
	s.tok = tok
	s.mu.Unlock()
	return nil
}

func (s *MemorySession) Clear() error { return s.SetToken("") }

// FileSession persists the token in a file readable only by the current user.
// Each Token call reads the file, so a login from another process is picked up
// by the next request.
type FileSession struct {
	Path string
	mu   sync.Mutex
}

// NewFileSession returns a FileSession stored at path.
func NewFileSession(path string) *FileSession { return &FileSession{Path: path} }

func (s *FileSession) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func (s *FileSession) SetToken(tok string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(s.Path, []byte(tok+"\n"), 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (s *FileSession) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// Role values carried in the token "type" claim and in UserDetail.Type.
const (
	RoleAdmin  = "Admin"
	RoleAlumno = "Alumno"
)

// Claims is the subset of token claims the client relies on.
type Claims struct {
	Subject   string
	Type      string
	ExpiresAt time.Time
}

// IsAdmin reports whether the token belongs to an administrator.
func (c Claims) IsAdmin() bool { return strings.EqualFold(c.Type, RoleAdmin) }

// Expired reports whether the token carries an expiry in the past.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// ParseClaims decodes the token payload without verifying its signature.
// Verification is the backend's job; the client only needs the role hint.
func ParseClaims(tok string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, mc); err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}
	var out Claims
	switch sub := mc["sub"].(type) {
	case string:
		out.Subject = sub
	case float64:
		out.Subject = fmt.Sprintf("%.0f", sub)
	}
	if t, ok := mc["type"].(string); ok {
		out.Type = t
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// SessionClaims decodes the claims of the current session token.
func (c *Client) SessionClaims() (Claims, error) {
	if !c.HasSession() {
		return Claims{}, ErrNoSession
	}
	return ParseClaims(c.Session.Token())
}
