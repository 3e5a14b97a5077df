// Package session is the simulated identity provider. It issues the Session
// value every per-user store is constructed with; stores never look up the
// current user on their own.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"kitchensync/internal/logger"
	"kitchensync/internal/models"
	"kitchensync/internal/storage"
)

// DefaultDelay stands in for a network round trip on login and signup.
const DefaultDelay = time.Second

var (
	ErrPasswordMismatch   = &models.ValidationError{Field: "confirm_password", Message: "Passwords don't match"}
	ErrUsernameTaken      = &models.ValidationError{Field: "username", Message: "Username is already taken"}
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAuthenticated   = errors.New("not authenticated")
)

// userNamespace seeds the deterministic user ids.
var userNamespace = uuid.MustParse("6f1c1c52-8f5e-4b8e-9a53-2f4f0f1b7a10")

// Session identifies the user whose state a store owns.
type Session struct {
	UserID string
}

func (s Session) Valid() bool { return s.UserID != "" }

// UserID derives the stable id for a username so a returning user finds the
// state they left behind.
func UserID(username string) string {
	return uuid.NewSHA1(userNamespace, []byte(username)).String()
}

type credential struct {
	PasswordHash string `json:"passwordHash"`
}

// Provider holds the current identity. Only one user is signed in at a time.
type Provider struct {
	backend storage.Backend
	delay   time.Duration
	sleep   func(time.Duration)

	mu      sync.RWMutex
	current *models.User
	loading int
}

type Option func(*Provider)

// WithDelay overrides the simulated round-trip delay.
func WithDelay(d time.Duration) Option {
	return func(p *Provider) { p.delay = d }
}

// WithSleep replaces time.Sleep, for tests.
func WithSleep(sleep func(time.Duration)) Option {
	return func(p *Provider) { p.sleep = sleep }
}

// NewProvider restores the persisted identity record, if any.
func NewProvider(backend storage.Backend, opts ...Option) (*Provider, error) {
	p := &Provider{
		backend: backend,
		delay:   DefaultDelay,
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}

	var user models.User
	found, err := storage.LoadJSON(backend, storage.KindIdentity, storage.Global, &user)
	if err != nil {
		return nil, err
	}
	if found && user.ID != "" {
		p.current = &user
	}

	return p, nil
}

// Current returns a copy of the signed-in user, or nil.
func (p *Provider) Current() *models.User {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.current == nil {
		return nil
	}
	u := *p.current
	u.DietaryPreferences = append([]string(nil), p.current.DietaryPreferences...)
	return &u
}

func (p *Provider) IsAuthenticated() bool {
	return p.Current() != nil
}

// Session returns the current session; ok is false when nobody is signed in.
func (p *Provider) Session() (Session, bool) {
	u := p.Current()
	if u == nil {
		return Session{}, false
	}
	s := Session{UserID: u.ID}
	return s, s.Valid()
}

// Loading reports whether a login or signup is in flight.
func (p *Provider) Loading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loading > 0
}

// Login signs a user in after the simulated delay. A username that signed up
// earlier must present the same password; any other username is accepted.
func (p *Provider) Login(username, password string) (*models.User, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	p.beginLoading()
	defer p.endLoading()
	p.sleep(p.delay)

	id := UserID(username)
	var cred credential
	found, err := storage.LoadJSON(p.backend, storage.KindCredentials, id, &cred)
	if err != nil {
		return nil, err
	}
	if found {
		if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
			logger.Warn("Login rejected", "username", username)
			return nil, ErrInvalidCredentials
		}
	}

	user := models.User{ID: id, Username: username, DietaryPreferences: []string{}}
	if prev := p.storedPreferences(id); prev != nil {
		user.DietaryPreferences = prev
	}

	if err := p.setCurrent(&user); err != nil {
		return nil, err
	}

	logger.Info("User logged in", "username", username, "user_id", id)
	return p.Current(), nil
}

// Signup validates the form, waits the simulated delay, records the
// credential and signs the new user in.
func (p *Provider) Signup(username, password, confirmPassword string) (*models.User, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}
	if password != confirmPassword {
		return nil, ErrPasswordMismatch
	}

	p.beginLoading()
	defer p.endLoading()
	p.sleep(p.delay)

	id := UserID(username)
	var existing credential
	taken, err := storage.LoadJSON(p.backend, storage.KindCredentials, id, &existing)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := storage.SaveJSON(p.backend, storage.KindCredentials, id, credential{PasswordHash: string(hash)}); err != nil {
		return nil, err
	}

	user := models.User{ID: id, Username: username, DietaryPreferences: []string{}}
	if err := p.setCurrent(&user); err != nil {
		return nil, err
	}

	logger.Info("User signed up", "username", username, "user_id", id)
	return p.Current(), nil
}

// Logout forgets the current identity.
func (p *Provider) Logout() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil {
		logger.Info("User logged out", "user_id", p.current.ID)
	}
	p.current = nil
	if err := p.backend.Delete(storage.KindIdentity, storage.Global); err != nil {
		return fmt.Errorf("failed to clear identity: %w", err)
	}
	return nil
}

// UpdatePreferences replaces the signed-in user's dietary preferences.
func (p *Provider) UpdatePreferences(prefs []string) (*models.User, error) {
	p.mu.Lock()
	if p.current == nil {
		p.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	updated := *p.current
	updated.DietaryPreferences = append([]string{}, prefs...)
	p.mu.Unlock()

	if err := p.setCurrent(&updated); err != nil {
		return nil, err
	}
	if err := storage.SaveJSON(p.backend, storage.KindProfile, updated.ID, updated.DietaryPreferences); err != nil {
		return nil, err
	}
	return p.Current(), nil
}

// storedPreferences returns preferences saved by a previous session of id.
func (p *Provider) storedPreferences(id string) []string {
	var prefs []string
	found, err := storage.LoadJSON(p.backend, storage.KindProfile, id, &prefs)
	if err != nil {
		logger.Warn("Failed to load dietary preferences", "user_id", id, "error", err)
		return nil
	}
	if !found {
		return nil
	}
	return prefs
}

// setCurrent persists the identity record before swapping it in, so a
// failed write leaves the previous identity in place.
func (p *Provider) setCurrent(u *models.User) error {
	if err := storage.SaveJSON(p.backend, storage.KindIdentity, storage.Global, u); err != nil {
		return err
	}
	p.mu.Lock()
	p.current = u
	p.mu.Unlock()
	return nil
}

func (p *Provider) beginLoading() {
	p.mu.Lock()
	p.loading++
	p.mu.Unlock()
}

func (p *Provider) endLoading() {
	p.mu.Lock()
	p.loading--
	p.mu.Unlock()
}

func validateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return models.Invalid("username", "Username is required")
	}
	if password == "" {
		return models.Invalid("password", "Password is required")
	}
	return nil
}
