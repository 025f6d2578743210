/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import "fmt"

// Identity provider drivers. DriverMemory is shared with the document store.
const DriverIdentityToolkit = "identitytoolkit"

const (
	EnvAuthDriver   = "ESTATE_AUTH_DRIVER"
	EnvFirebaseKey  = "FIREBASE_API_KEY"
	EnvAuthBaseURL  = "ESTATE_AUTH_BASE_URL"
	EnvAuthTokenURL = "ESTATE_AUTH_TOKEN_URL"
)

// AuthConfig selects the identity provider.
type AuthConfig struct {
	Driver string `yaml:"driver"`
	APIKey string `yaml:"api_key"`
	// BaseURL and TokenURL point at the Auth emulator when set.
	BaseURL    string `yaml:"base_url"`
	TokenURL   string `yaml:"token_url"`
	RequestURI string `yaml:"request_uri"`
}

func (c *AuthConfig) Finalize() error {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	envString(&c.Driver, EnvAuthDriver)
	envString(&c.APIKey, EnvFirebaseKey)
	envString(&c.BaseURL, EnvAuthBaseURL)
	envString(&c.TokenURL, EnvAuthTokenURL)

	switch c.Driver {
	case DriverMemory:
	case DriverIdentityToolkit:
		if c.APIKey == "" {
			return fmt.Errorf("api_key required")
		}
	default:
		return fmt.Errorf("unknown driver %q (must be memory or identitytoolkit)", c.Driver)
	}
	return nil
}

func (c *AuthConfig) Merge(overlay *AuthConfig) {
	setString(&c.Driver, overlay.Driver)
	setString(&c.APIKey, overlay.APIKey)
	setString(&c.BaseURL, overlay.BaseURL)
	setString(&c.TokenURL, overlay.TokenURL)
	setString(&c.RequestURI, overlay.RequestURI)
}
