/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Document store drivers.
const (
	DriverMemory    = "memory"
	DriverDynamoDB  = "dynamodb"
	DriverFirestore = "firestore"
	DriverMongo     = "mongo"
)

const (
	EnvStoreDriver      = "ESTATE_STORE_DRIVER"
	EnvStoreMaxAttempts = "ESTATE_STORE_MAX_ATTEMPTS"

	// DynamoDB settings keep the names the deployment scripts already export.
	EnvAWSAccessKey = "AWS_ACCESS_KEY"
	EnvAWSSecretKey = "AWS_SECRET_KEY"
	EnvAWSRegion    = "AWS_REGION"
	EnvDDBTable     = "AWS_DDB_TABLE"
	EnvDDBEndpoint  = "AWS_DDB_ENDPOINT"

	EnvFirestoreProject     = "FIRESTORE_PROJECT_ID"
	EnvFirestoreCredentials = "GOOGLE_APPLICATION_CREDENTIALS"

	EnvMongoURI      = "MONGO_URI"
	EnvMongoDatabase = "MONGO_DATABASE"
)

// StoreConfig selects the document store.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	// MaxAttempts bounds transaction retries on contention.
	MaxAttempts int `yaml:"max_attempts"`
	// PollInterval paces watches on backends without push notifications.
	PollInterval string `yaml:"poll_interval"`

	DynamoDB  DynamoDBConfig  `yaml:"dynamodb"`
	Firestore FirestoreConfig `yaml:"firestore"`
	Mongo     MongoConfig     `yaml:"mongo"`
}

type DynamoDBConfig struct {
	Table     string `yaml:"table"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`
}

type FirestoreConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Timeout    string `yaml:"timeout"`
	MaxElapsed string `yaml:"max_elapsed"`
}

// PollIntervalDuration returns the parsed poll interval.
func (c *StoreConfig) PollIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.PollInterval)
	return d
}

// TimeoutDuration returns the per-attempt connect timeout.
func (c *MongoConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// MaxElapsedDuration returns the bound of the connect retry loop.
func (c *MongoConfig) MaxElapsedDuration() time.Duration {
	d, _ := time.ParseDuration(c.MaxElapsed)
	return d
}

func (c *StoreConfig) Finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	return c.validate()
}

func (c *StoreConfig) Merge(overlay *StoreConfig) {
	setString(&c.Driver, overlay.Driver)
	if overlay.MaxAttempts > 0 {
		c.MaxAttempts = overlay.MaxAttempts
	}
	setString(&c.PollInterval, overlay.PollInterval)

	setString(&c.DynamoDB.Table, overlay.DynamoDB.Table)
	setString(&c.DynamoDB.Region, overlay.DynamoDB.Region)
	setString(&c.DynamoDB.AccessKey, overlay.DynamoDB.AccessKey)
	setString(&c.DynamoDB.SecretKey, overlay.DynamoDB.SecretKey)
	setString(&c.DynamoDB.Endpoint, overlay.DynamoDB.Endpoint)

	setString(&c.Firestore.ProjectID, overlay.Firestore.ProjectID)
	setString(&c.Firestore.CredentialsFile, overlay.Firestore.CredentialsFile)

	setString(&c.Mongo.URI, overlay.Mongo.URI)
	setString(&c.Mongo.Database, overlay.Mongo.Database)
	setString(&c.Mongo.Timeout, overlay.Mongo.Timeout)
	setString(&c.Mongo.MaxElapsed, overlay.Mongo.MaxElapsed)
}

func (c *StoreConfig) loadDefaults() {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 5
	}
	if c.PollInterval == "" {
		c.PollInterval = "2s"
	}
	if c.Mongo.Timeout == "" {
		c.Mongo.Timeout = "10s"
	}
	if c.Mongo.MaxElapsed == "" {
		c.Mongo.MaxElapsed = "30s"
	}
}

func (c *StoreConfig) loadEnv() error {
	envString(&c.Driver, EnvStoreDriver)
	if v := os.Getenv(EnvStoreMaxAttempts); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvStoreMaxAttempts, err)
		}
		c.MaxAttempts = n
	}

	envString(&c.DynamoDB.AccessKey, EnvAWSAccessKey)
	envString(&c.DynamoDB.SecretKey, EnvAWSSecretKey)
	envString(&c.DynamoDB.Region, EnvAWSRegion)
	envString(&c.DynamoDB.Table, EnvDDBTable)
	envString(&c.DynamoDB.Endpoint, EnvDDBEndpoint)

	envString(&c.Firestore.ProjectID, EnvFirestoreProject)
	envString(&c.Firestore.CredentialsFile, EnvFirestoreCredentials)

	envString(&c.Mongo.URI, EnvMongoURI)
	envString(&c.Mongo.Database, EnvMongoDatabase)
	return nil
}

func (c *StoreConfig) validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be positive")
	}
	if d, err := time.ParseDuration(c.PollInterval); err != nil || d <= 0 {
		return fmt.Errorf("invalid poll_interval %q", c.PollInterval)
	}

	switch c.Driver {
	case DriverMemory:
	case DriverDynamoDB:
		if c.DynamoDB.Table == "" {
			return fmt.Errorf("dynamodb.table required")
		}
		if c.DynamoDB.Region == "" {
			return fmt.Errorf("dynamodb.region required")
		}
	case DriverFirestore:
		if c.Firestore.ProjectID == "" {
			return fmt.Errorf("firestore.project_id required")
		}
	case DriverMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return fmt.Errorf("mongo.uri and mongo.database required")
		}
		if _, err := time.ParseDuration(c.Mongo.Timeout); err != nil {
			return fmt.Errorf("invalid mongo.timeout: %w", err)
		}
		if _, err := time.ParseDuration(c.Mongo.MaxElapsed); err != nil {
			return fmt.Errorf("invalid mongo.max_elapsed: %w", err)
		}
	default:
		return fmt.Errorf("unknown driver %q (must be memory, dynamodb, firestore, or mongo)", c.Driver)
	}
	return nil
}
