/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package identitytoolkit signs users in through the Firebase Identity Toolkit
// REST API.
package identitytoolkit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/suparena/estatestore/auth"
)

// Default service endpoints.
const (
	DefaultBaseURL  = "https://identitytoolkit.googleapis.com/v1"
	DefaultTokenURL = "https://securetoken.googleapis.com/v1/token"
)

// Config holds the settings for New.
type Config struct {
	APIKey string
	// BaseURL and TokenURL override the endpoints, e.g. for the Auth emulator.
	BaseURL  string
	TokenURL string
	// RequestURI is sent with IdP sign-ins.
	RequestURI string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client implements auth.Provider.
type Client struct {
	apiKey     string
	baseURL    string
	tokenURL   string
	requestURI string
	http       *http.Client
	clock      func() time.Time
	logger     *slog.Logger
}

var _ auth.Provider = (*Client)(nil)

// New creates a client. The API key is required.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	c := &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		tokenURL:   cfg.TokenURL,
		requestURI: cfg.RequestURI,
		http:       cfg.HTTPClient,
		clock:      time.Now,
		logger:     cfg.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.tokenURL == "" {
		c.tokenURL = DefaultTokenURL
	}
	if c.requestURI == "" {
		c.requestURI = "http://localhost"
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c.logger = c.logger.With("component", "auth.identitytoolkit")
	return c, nil
}

// apiError is the error body of both services.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// mapError turns a service error message into a provider error. Messages look like
// "WEAK_PASSWORD : Password should be at least 6 characters".
func mapError(status int, message string) error {
	code := strings.TrimSpace(strings.SplitN(message, ":", 2)[0])
	var base error
	switch code {
	case "EMAIL_EXISTS":
		base = auth.ErrEmailExists
	case "EMAIL_NOT_FOUND", "USER_NOT_FOUND":
		base = auth.ErrUserNotFound
	case "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "INVALID_IDP_RESPONSE", "USER_DISABLED", "INVALID_EMAIL":
		base = auth.ErrInvalidCredential
	case "WEAK_PASSWORD":
		base = auth.ErrWeakPassword
	case "TOKEN_EXPIRED", "INVALID_ID_TOKEN", "INVALID_REFRESH_TOKEN", "USER_MISMATCH", "CREDENTIAL_TOO_OLD_LOGIN_AGAIN":
		base = auth.ErrTokenExpired
	default:
		return fmt.Errorf("identity toolkit error %d: %s", status, message)
	}
	return fmt.Errorf("%w (%s)", base, message)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var ae apiError
		if json.Unmarshal(body, &ae) == nil && ae.Error.Message != "" {
			return mapError(resp.StatusCode, ae.Error.Message)
		}
		return fmt.Errorf("identity toolkit error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (c *Client) call(ctx context.Context, method string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	endpoint := c.baseURL + "/accounts:" + method + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.logger.Debug("calling identity toolkit", "method", method)
	return c.do(req, out)
}

// tokenResponse is the common shape of sign-up and sign-in responses.
type tokenResponse struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	IDToken       string `json:"idToken"`
	RefreshToken  string `json:"refreshToken"`
	ExpiresIn     string `json:"expiresIn"`
	EmailVerified bool   `json:"emailVerified"`
	IsNewUser     bool   `json:"isNewUser"`
	ProviderID    string `json:"providerId"`
}

func (c *Client) expiry(seconds string) time.Time {
	n, err := strconv.Atoi(seconds)
	if err != nil || n <= 0 {
		n = 3600
	}
	return c.clock().Add(time.Duration(n) * time.Second)
}

func (c *Client) credential(r *tokenResponse, providerID string, isNew bool) *auth.Credential {
	if r.ProviderID != "" {
		providerID = r.ProviderID
	}
	return &auth.Credential{
		Identity: &auth.Identity{
			UID:           r.LocalID,
			Email:         r.Email,
			DisplayName:   r.DisplayName,
			EmailVerified: r.EmailVerified,
			ProviderID:    providerID,
		},
		IDToken:      r.IDToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    c.expiry(r.ExpiresIn),
		IsNewUser:    isNew || r.IsNewUser,
	}
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*auth.Credential, error) {
	var r tokenResponse
	err := c.call(ctx, "signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &r)
	if err != nil {
		return nil, err
	}
	return c.credential(&r, "password", true), nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*auth.Credential, error) {
	var r tokenResponse
	err := c.call(ctx, "signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &r)
	if err != nil {
		return nil, err
	}
	return c.credential(&r, "password", false), nil
}

func (c *Client) SignInWithGoogle(ctx context.Context, googleIDToken string) (*auth.Credential, error) {
	postBody := url.Values{"id_token": {googleIDToken}, "providerId": {"google.com"}}.Encode()
	var r tokenResponse
	err := c.call(ctx, "signInWithIdp", map[string]any{
		"postBody":            postBody,
		"requestUri":          c.requestURI,
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}, &r)
	if err != nil {
		return nil, err
	}
	return c.credential(&r, "google.com", false), nil
}

func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	return c.call(ctx, "sendOobCode", map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, nil)
}

func (c *Client) UpdateProfile(ctx context.Context, idToken, displayName string) (*auth.Identity, error) {
	var r tokenResponse
	err := c.call(ctx, "update", map[string]any{
		"idToken":           idToken,
		"displayName":       displayName,
		"returnSecureToken": false,
	}, &r)
	if err != nil {
		return nil, err
	}
	return &auth.Identity{
		UID:           r.LocalID,
		Email:         r.Email,
		DisplayName:   r.DisplayName,
		EmailVerified: r.EmailVerified,
		ProviderID:    r.ProviderID,
	}, nil
}

// Refresh exchanges a refresh token at the secure token service.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*auth.Credential, error) {
	form := url.Values{"grant_type": {"refresh_token"}, "refresh_token": {refreshToken}}
	endpoint := c.tokenURL + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var r struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
		UserID       string `json:"user_id"`
	}
	if err := c.do(req, &r); err != nil {
		return nil, err
	}
	return &auth.Credential{
		Identity:     &auth.Identity{UID: r.UserID},
		IDToken:      r.IDToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    c.expiry(r.ExpiresIn),
	}, nil
}

// SignOut is local: ID tokens stay valid until they expire.
func (c *Client) SignOut(ctx context.Context, cred *auth.Credential) error {
	return nil
}
