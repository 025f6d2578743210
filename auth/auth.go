/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package auth

import (
	"context"
	"errors"
	"time"
)

// Provider failures. Implementations wrap these so callers can match them with
// errors.Is.
var (
	ErrEmailExists       = errors.New("email already in use")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrUserNotFound      = errors.New("user not found")
	ErrWeakPassword      = errors.New("password is too weak")
	ErrTokenExpired      = errors.New("token expired or revoked")
)

// Identity is a signed-up user as seen by the identity provider.
type Identity struct {
	UID           string
	Email         string
	DisplayName   string
	EmailVerified bool
	// ProviderID is "password" or "google.com".
	ProviderID string
}

// Clone returns a copy safe to hand out.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	return &c
}

// Credential is the result of a sign-in.
type Credential struct {
	Identity     *Identity
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
	IsNewUser    bool
}

// Provider talks to an identity service.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*Credential, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Credential, error)
	// SignInWithGoogle exchanges a Google ID token obtained by the client.
	SignInWithGoogle(ctx context.Context, googleIDToken string) (*Credential, error)
	SendPasswordReset(ctx context.Context, email string) error
	UpdateProfile(ctx context.Context, idToken, displayName string) (*Identity, error)
	// Refresh issues a new ID token for the refresh token.
	Refresh(ctx context.Context, refreshToken string) (*Credential, error)
	SignOut(ctx context.Context, cred *Credential) error
}
