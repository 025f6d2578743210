/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package auth

import (
	"context"
	"sync"
)

type listener struct {
	id int
	fn func(*Identity)
}

// Session holds the signed-in credential and notifies listeners when the signed-in
// identity changes. Listeners run outside the state lock in registration order,
// one notification at a time, so each listener sees changes in commit order.
// A listener must not sign in or out from inside its callback.
type Session struct {
	// notifyMu is held from the state snapshot through dispatch.
	notifyMu  sync.Mutex
	mu        sync.Mutex
	provider  Provider
	current   *Credential
	listeners []listener
	nextID    int
}

// NewSession creates a signed-out session.
func NewSession(provider Provider) *Session {
	return &Session{provider: provider}
}

// Provider returns the underlying provider
func (s *Session) Provider() Provider {
	return s.provider
}

// Current returns the signed-in identity, or nil.
func (s *Session) Current() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	return s.current.Identity.Clone()
}

// OnChange registers fn, calls it with the current identity, and returns a function
// that removes it.
func (s *Session) OnChange(fn func(*Identity)) func() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listener{id: id, fn: fn})
	var current *Identity
	if s.current != nil {
		current = s.current.Identity.Clone()
	}
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, l := range s.listeners {
				if l.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// setCurrent swaps the credential and notifies listeners with the new identity.
func (s *Session) setCurrent(cred *Credential) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.mu.Lock()
	s.current = cred
	listeners := append([]listener(nil), s.listeners...)
	var identity *Identity
	if cred != nil {
		identity = cred.Identity
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l.fn(identity.Clone())
	}
}

func (s *Session) credential() *Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SignUp creates an account, sets its display name when given, and signs it in.
func (s *Session) SignUp(ctx context.Context, email, password, displayName string) (*Identity, error) {
	cred, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if displayName != "" {
		identity, err := s.provider.UpdateProfile(ctx, cred.IDToken, displayName)
		if err != nil {
			return nil, err
		}
		cred.Identity = identity
	}
	s.setCurrent(cred)
	return cred.Identity.Clone(), nil
}

// SignIn signs in with email and password
func (s *Session) SignIn(ctx context.Context, email, password string) (*Credential, error) {
	cred, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s.setCurrent(cred)
	return cred, nil
}

// SignInWithGoogle signs in with a Google ID token
func (s *Session) SignInWithGoogle(ctx context.Context, googleIDToken string) (*Credential, error) {
	cred, err := s.provider.SignInWithGoogle(ctx, googleIDToken)
	if err != nil {
		return nil, err
	}
	s.setCurrent(cred)
	return cred, nil
}

// SignOut clears the session. Signing out while signed out does nothing.
func (s *Session) SignOut(ctx context.Context) error {
	cred := s.credential()
	if cred == nil {
		return nil
	}
	if err := s.provider.SignOut(ctx, cred); err != nil {
		return err
	}
	s.setCurrent(nil)
	return nil
}

// SendPasswordReset starts the password reset flow for email
func (s *Session) SendPasswordReset(ctx context.Context, email string) error {
	return s.provider.SendPasswordReset(ctx, email)
}

// UpdateDisplayName renames the signed-in identity. It returns nil when signed out.
func (s *Session) UpdateDisplayName(ctx context.Context, name string) (*Identity, error) {
	cred := s.credential()
	if cred == nil {
		return nil, nil
	}
	identity, err := s.provider.UpdateProfile(ctx, cred.IDToken, name)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.current == cred {
		updated := *cred
		updated.Identity = identity
		s.current = &updated
	}
	s.mu.Unlock()
	return identity.Clone(), nil
}

// IDToken returns a freshly refreshed ID token, or "" when signed out.
func (s *Session) IDToken(ctx context.Context) (string, error) {
	cred := s.credential()
	if cred == nil {
		return "", nil
	}
	refreshed, err := s.provider.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if s.current == cred {
		updated := *cred
		updated.IDToken = refreshed.IDToken
		updated.ExpiresAt = refreshed.ExpiresAt
		if refreshed.RefreshToken != "" {
			updated.RefreshToken = refreshed.RefreshToken
		}
		s.current = &updated
	}
	s.mu.Unlock()
	return refreshed.IDToken, nil
}
