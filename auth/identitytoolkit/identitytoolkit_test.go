/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package identitytoolkit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/suparena/estatestore/auth"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1", TokenURL: srv.URL + "/token"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]any{"code": 400, "message": message}})
}

func TestSignInWithPassword(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/accounts:signInWithPassword" || r.URL.Query().Get("key") != "test-key" {
			t.Errorf("Unexpected request %s", r.URL)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "jean@example.com" || body["returnSecureToken"] != true {
			t.Errorf("Unexpected body %v", body)
		}
		if body["password"] != "secret1" {
			writeError(w, "INVALID_LOGIN_CREDENTIALS")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"localId":      "uid-1",
			"email":        "jean@example.com",
			"displayName":  "Jean",
			"idToken":      "id-1",
			"refreshToken": "rt-1",
			"expiresIn":    "3600",
		})
	})

	cred, err := c.SignInWithPassword(context.Background(), "jean@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignInWithPassword failed: %v", err)
	}
	if cred.Identity.UID != "uid-1" || cred.IDToken != "id-1" || cred.RefreshToken != "rt-1" || cred.Identity.ProviderID != "password" {
		t.Fatalf("Unexpected credential %+v / %+v", cred, cred.Identity)
	}
	if cred.ExpiresAt.IsZero() {
		t.Fatal("Expected an expiry")
	}

	_, err = c.SignInWithPassword(context.Background(), "jean@example.com", "wrong")
	if !errors.Is(err, auth.ErrInvalidCredential) {
		t.Fatalf("Expected ErrInvalidCredential, got %v", err)
	}
}

func TestSignInWithGoogle(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		post, _ := url.ParseQuery(body["postBody"].(string))
		if post.Get("id_token") != "google-token" || post.Get("providerId") != "google.com" {
			t.Errorf("Unexpected postBody %v", body["postBody"])
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"localId":    "uid-g",
			"email":      "marie@example.com",
			"idToken":    "id-g",
			"isNewUser":  true,
			"providerId": "google.com",
		})
	})

	cred, err := c.SignInWithGoogle(context.Background(), "google-token")
	if err != nil {
		t.Fatalf("SignInWithGoogle failed: %v", err)
	}
	if !cred.IsNewUser || cred.Identity.ProviderID != "google.com" {
		t.Fatalf("Unexpected credential %+v", cred)
	}
}

func TestRefresh(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		r.ParseForm()
		if r.PostForm.Get("grant_type") != "refresh_token" {
			t.Errorf("Unexpected form %v", r.PostForm)
		}
		if r.PostForm.Get("refresh_token") != "rt-1" {
			writeError(w, "INVALID_REFRESH_TOKEN")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id_token":      "id-2",
			"refresh_token": "rt-2",
			"expires_in":    "3600",
			"user_id":       "uid-1",
		})
	})

	cred, err := c.Refresh(context.Background(), "rt-1")
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if cred.IDToken != "id-2" || cred.RefreshToken != "rt-2" {
		t.Fatalf("Unexpected credential %+v", cred)
	}
	if _, err := c.Refresh(context.Background(), "stale"); !errors.Is(err, auth.ErrTokenExpired) {
		t.Fatalf("Expected ErrTokenExpired, got %v", err)
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		message string
		want    error
	}{
		{"EMAIL_EXISTS", auth.ErrEmailExists},
		{"EMAIL_NOT_FOUND", auth.ErrUserNotFound},
		{"WEAK_PASSWORD : Password should be at least 6 characters", auth.ErrWeakPassword},
		{"TOKEN_EXPIRED", auth.ErrTokenExpired},
		{"INVALID_PASSWORD", auth.ErrInvalidCredential},
	}
	for _, tt := range tests {
		err := mapError(400, tt.message)
		if !errors.Is(err, tt.want) {
			t.Fatalf("mapError(%q) = %v, want %v", tt.message, err, tt.want)
		}
		if !strings.Contains(err.Error(), tt.message) {
			t.Fatalf("Expected the original message in %q", err)
		}
	}

	err := mapError(500, "BACKEND_ERROR")
	for _, sentinel := range []error{auth.ErrEmailExists, auth.ErrUserNotFound, auth.ErrInvalidCredential, auth.ErrWeakPassword, auth.ErrTokenExpired} {
		if errors.Is(err, sentinel) {
			t.Fatalf("Unexpected match %v for an unknown code", sentinel)
		}
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("Expected an error without an API key")
	}
}
