/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package memory is an in-process identity provider for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/suparena/estatestore/auth"
)

// MinPasswordLength matches the Firebase password policy.
const MinPasswordLength = 6

// DefaultTokenTTL is the lifetime of issued ID tokens.
const DefaultTokenTTL = time.Hour

type account struct {
	identity auth.Identity
	hash     []byte
}

type session struct {
	uid       string
	expiresAt time.Time
}

// Provider keeps accounts and tokens in maps.
type Provider struct {
	mu      sync.Mutex
	byEmail map[string]*account
	google  map[string]auth.Identity
	idToks  map[string]session
	refresh map[string]string
	resets  []string
	cost    int
	ttl     time.Duration
	clock   func() time.Time
}

var _ auth.Provider = (*Provider)(nil)

// New creates an empty provider.
func New() *Provider {
	return &Provider{
		byEmail: make(map[string]*account),
		google:  make(map[string]auth.Identity),
		idToks:  make(map[string]session),
		refresh: make(map[string]string),
		cost:    bcrypt.DefaultCost,
		ttl:     DefaultTokenTTL,
		clock:   time.Now,
	}
}

// WithCost sets the bcrypt cost
func (p *Provider) WithCost(cost int) *Provider {
	p.cost = cost
	return p
}

// WithClock sets the time source for token expiry
func (p *Provider) WithClock(clock func() time.Time) *Provider {
	p.clock = clock
	return p
}

// WithTokenTTL sets the ID token lifetime
func (p *Provider) WithTokenTTL(ttl time.Duration) *Provider {
	p.ttl = ttl
	return p
}

// RegisterGoogleAccount makes googleIDToken sign in as email.
func (p *Provider) RegisterGoogleAccount(googleIDToken, email, displayName string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.google[googleIDToken] = auth.Identity{Email: normalize(email), DisplayName: displayName, EmailVerified: true, ProviderID: "google.com"}
}

// ResetRequests returns the emails a password reset was sent to.
func (p *Provider) ResetRequests() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.resets...)
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// issue creates tokens for uid. Callers hold the lock.
func (p *Provider) issue(identity auth.Identity, isNew bool) *auth.Credential {
	idToken := "id-" + uuid.NewString()
	refreshToken := "rt-" + uuid.NewString()
	expiresAt := p.clock().Add(p.ttl)
	p.idToks[idToken] = session{uid: identity.UID, expiresAt: expiresAt}
	p.refresh[refreshToken] = identity.UID
	return &auth.Credential{
		Identity:     identity.Clone(),
		IDToken:      idToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		IsNewUser:    isNew,
	}
}

func (p *Provider) byUID(uid string) *account {
	for _, a := range p.byEmail {
		if a.identity.UID == uid {
			return a
		}
	}
	return nil
}

func (p *Provider) SignUp(ctx context.Context, email, password string) (*auth.Credential, error) {
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: at least %d characters required", auth.ErrWeakPassword, MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	key := normalize(email)
	if _, ok := p.byEmail[key]; ok {
		return nil, auth.ErrEmailExists
	}
	a := &account{
		identity: auth.Identity{UID: uuid.NewString(), Email: key, ProviderID: "password"},
		hash:     hash,
	}
	p.byEmail[key] = a
	return p.issue(a.identity, true), nil
}

func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*auth.Credential, error) {
	p.mu.Lock()
	a, ok := p.byEmail[normalize(email)]
	p.mu.Unlock()
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	if a.hash == nil || bcrypt.CompareHashAndPassword(a.hash, []byte(password)) != nil {
		return nil, auth.ErrInvalidCredential
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.issue(a.identity, false), nil
}

// SignInWithGoogle signs in the account registered for the token, creating it on
// first use.
func (p *Provider) SignInWithGoogle(ctx context.Context, googleIDToken string) (*auth.Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	g, ok := p.google[googleIDToken]
	if !ok {
		return nil, auth.ErrInvalidCredential
	}
	if a, exists := p.byEmail[g.Email]; exists {
		return p.issue(a.identity, false), nil
	}
	g.UID = uuid.NewString()
	p.byEmail[g.Email] = &account{identity: g}
	return p.issue(g, true), nil
}

func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := normalize(email)
	if _, ok := p.byEmail[key]; !ok {
		return auth.ErrUserNotFound
	}
	p.resets = append(p.resets, key)
	return nil
}

func (p *Provider) UpdateProfile(ctx context.Context, idToken, displayName string) (*auth.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sess, ok := p.idToks[idToken]
	if !ok || !p.clock().Before(sess.expiresAt) {
		return nil, auth.ErrTokenExpired
	}
	a := p.byUID(sess.uid)
	if a == nil {
		return nil, auth.ErrUserNotFound
	}
	a.identity.DisplayName = displayName
	return a.identity.Clone(), nil
}

func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*auth.Credential, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	uid, ok := p.refresh[refreshToken]
	if !ok {
		return nil, auth.ErrTokenExpired
	}
	a := p.byUID(uid)
	if a == nil {
		return nil, auth.ErrUserNotFound
	}
	delete(p.refresh, refreshToken)
	return p.issue(a.identity, false), nil
}

// SignOut revokes the credential's tokens
func (p *Provider) SignOut(ctx context.Context, cred *auth.Credential) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.idToks, cred.IDToken)
	delete(p.refresh, cred.RefreshToken)
	return nil
}
