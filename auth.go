/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package estatestore

import (
	"context"

	"github.com/suparena/estatestore/auth"
	"github.com/suparena/estatestore/errors"
)

func validateCredentials(email, password string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	return requireString("password", password)
}

// SignUpWithEmail creates an account, names it when displayName is not blank, and
// signs it in.
func (f *Facade) SignUpWithEmail(ctx context.Context, email, password, displayName string) (*auth.Identity, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	if isBlank(displayName) {
		displayName = ""
	}
	identity, err := f.session.SignUp(ctx, email, password, displayName)
	if err != nil {
		return nil, errors.NewAuthError("signUpWithEmail", err)
	}
	f.logger.Info("account created", "uid", identity.UID)
	return identity, nil
}

func (f *Facade) SignInWithEmail(ctx context.Context, email, password string) (*auth.Credential, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	cred, err := f.session.SignIn(ctx, email, password)
	if err != nil {
		return nil, errors.NewAuthError("signInWithEmail", err)
	}
	return cred, nil
}

// SignInWithGoogle signs in with an ID token issued by Google.
func (f *Facade) SignInWithGoogle(ctx context.Context, googleIDToken string) (*auth.Credential, error) {
	if err := requireString("googleIDToken", googleIDToken); err != nil {
		return nil, err
	}
	cred, err := f.session.SignInWithGoogle(ctx, googleIDToken)
	if err != nil {
		return nil, errors.NewAuthError("signInWithGoogle", err)
	}
	return cred, nil
}

// Logout ends the session. Logging out while signed out succeeds.
func (f *Facade) Logout(ctx context.Context) error {
	if err := f.session.SignOut(ctx); err != nil {
		return errors.NewAuthError("logout", err)
	}
	return nil
}

// OnAuthChanged calls cb with the current identity, nil when signed out, and again
// on every sign-in and sign-out. It returns the function that unregisters cb.
func (f *Facade) OnAuthChanged(cb func(*auth.Identity)) (func(), error) {
	if cb == nil {
		return nil, errors.NewValidationError("callback", "callback is required")
	}
	return f.session.OnChange(cb), nil
}

func (f *Facade) SendPasswordReset(ctx context.Context, email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := f.session.SendPasswordReset(ctx, email); err != nil {
		return errors.NewAuthError("sendPasswordReset", err)
	}
	return nil
}

// UpdateDisplayName renames the signed-in identity. It returns nil, nil when
// nobody is signed in.
func (f *Facade) UpdateDisplayName(ctx context.Context, name string) (*auth.Identity, error) {
	if f.session.Current() == nil {
		return nil, nil
	}
	if err := requireString("displayName", name); err != nil {
		return nil, err
	}
	identity, err := f.session.UpdateDisplayName(ctx, name)
	if err != nil {
		return nil, errors.NewAuthError("updateDisplayName", err)
	}
	return identity, nil
}

// CurrentIdentity returns the signed-in identity, or nil.
func (f *Facade) CurrentIdentity() *auth.Identity {
	return f.session.Current()
}

// CurrentIdentityToken returns a freshly refreshed bearer token, or "" when
// nobody is signed in.
func (f *Facade) CurrentIdentityToken(ctx context.Context) (string, error) {
	token, err := f.session.IDToken(ctx)
	if err != nil {
		return "", errors.NewAuthError("getCurrentIdentityToken", err)
	}
	return token, nil
}
