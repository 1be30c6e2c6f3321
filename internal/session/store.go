package session

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
	"golang.org/x/crypto/pbkdf2"

	"github.com/example/courtbook/internal/api"
)

// Gateway is the slice of the API client the session lifecycle needs.
type Gateway interface {
	Login(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, form api.RegistrationForm) (string, error)
	Logout(ctx context.Context) error
}

// payload is what gets sealed into the session file.
type payload struct {
	Token    string
	Username string
	SavedAt  int64
}

const sealName = "courtbook_session"

// Store holds the process-wide authentication state: a token hydrated once
// from a sealed file at startup, mutated only by login/logout. It satisfies
// api.TokenSource for every outbound request.
type Store struct {
	path string
	sc   *securecookie.SecureCookie
	log  *zap.Logger

	token    string
	username string
	hydrated bool
}

// NewStore derives the sealing keys from the operator secret and binds the
// store to its on-disk session file. Nothing is read until Hydrate.
func NewStore(path string, secret []byte, log *zap.Logger) (*Store, error) {
	if len(secret) == 0 {
		return nil, errors.New("session: empty sealing secret")
	}
	if log == nil {
		log = zap.NewNop()
	}
	hashKey := deriveKey(secret, "courtbook-session-hash")
	blockKey := deriveKey(secret, "courtbook-session-block")
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(0) // the backend decides token expiry, not the file
	return &Store{path: path, sc: sc, log: log}, nil
}

// deriveKey stretches the operator secret into a 32-byte key per purpose,
// so one COURTBOOK_SECRET_KEY serves both HMAC and AES.
func deriveKey(secret []byte, purpose string) []byte {
	return pbkdf2.Key(secret, []byte(purpose), 4096, 32, sha256.New)
}

// Hydrate loads persisted session state. A missing file is simply a
// logged-out state; an unreadable or tampered file is treated the same but
// reported, so a corrupt file never locks the user out of logging in again.
func (s *Store) Hydrate() error {
	s.hydrated = true
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("session: read %s: %w", s.path, err)
	}
	var p payload
	if err := s.sc.Decode(sealName, string(raw), &p); err != nil {
		s.log.Warn("discarding unreadable session file", zap.String("path", s.path), zap.Error(err))
		_ = os.Remove(s.path)
		return nil
	}
	s.token = p.Token
	s.username = p.Username
	return nil
}

// Token implements api.TokenSource.
func (s *Store) Token() string { return s.token }

func (s *Store) Username() string { return s.username }

func (s *Store) Authenticated() bool { return s.token != "" }

// Login authenticates against the backend and persists the session on
// success.
func (s *Store) Login(ctx context.Context, gw Gateway, username, password string) error {
	token, err := gw.Login(ctx, username, password)
	if err != nil {
		return err
	}
	s.token = token
	s.username = username
	return s.persist()
}

// Register creates an account; when the backend returns a token right away
// the session is persisted as if logged in.
func (s *Store) Register(ctx context.Context, gw Gateway, form api.RegistrationForm) error {
	token, err := gw.Register(ctx, form)
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}
	s.token = token
	s.username = form.Username
	return s.persist()
}

// Logout tells the backend best-effort, then always clears local state.
func (s *Store) Logout(ctx context.Context, gw Gateway) error {
	if s.token != "" {
		if err := gw.Logout(ctx); err != nil {
			s.log.Warn("backend logout failed, clearing local session anyway", zap.Error(err))
		}
	}
	return s.Invalidate()
}

// Invalidate drops the session without a server call. The booking flow uses
// this when the backend rejects the token.
func (s *Store) Invalidate() error {
	s.token = ""
	s.username = ""
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("session: remove %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) persist() error {
	p := payload{Token: s.token, Username: s.username, SavedAt: time.Now().Unix()}
	sealed, err := s.sc.Encode(sealName, p)
	if err != nil {
		return fmt.Errorf("session: seal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("session: mkdir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(sealed), 0o600); err != nil {
		return fmt.Errorf("session: write %s: %w", s.path, err)
	}
	return nil
}
