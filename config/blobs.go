/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"fmt"
	"time"

	"github.com/docker/go-units"
)

// Blob store drivers. DriverMemory is shared with the document store.
const (
	DriverFilesystem = "filesystem"
	DriverS3         = "s3"
)

const (
	EnvBlobsDriver        = "ESTATE_BLOBS_DRIVER"
	EnvBlobsBasePath      = "ESTATE_BLOBS_BASE_PATH"
	EnvBlobsMaxUploadSize = "ESTATE_BLOBS_MAX_UPLOAD_SIZE"
	EnvS3Bucket           = "AWS_S3_BUCKET"
	EnvS3Endpoint         = "AWS_S3_ENDPOINT"
)

// BlobsConfig selects the blob store.
type BlobsConfig struct {
	Driver string `yaml:"driver"`
	// Bucket names the memory and S3 buckets.
	Bucket string `yaml:"bucket"`
	// BasePath is the root directory of the filesystem driver.
	BasePath string `yaml:"base_path"`
	// BaseURL prefixes filesystem URLs; empty means file:// URLs.
	BaseURL string `yaml:"base_url"`
	// MaxUploadSize is a human size such as "25MB"; "0" disables the limit.
	MaxUploadSize    string `yaml:"max_upload_size"`
	maxUploadSizeVal int64

	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Region        string `yaml:"region"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	Endpoint      string `yaml:"endpoint"`
	UsePathStyle  bool   `yaml:"use_path_style"`
	PublicBaseURL string `yaml:"public_base_url"`
	URLExpiry     string `yaml:"url_expiry"`
}

// MaxUploadSizeBytes returns the parsed upload limit. It is valid after Finalize.
func (c *BlobsConfig) MaxUploadSizeBytes() int64 {
	return c.maxUploadSizeVal
}

// URLExpiryDuration returns the lifetime of presigned URLs.
func (c *S3Config) URLExpiryDuration() time.Duration {
	d, _ := time.ParseDuration(c.URLExpiry)
	return d
}

func (c *BlobsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

func (c *BlobsConfig) Merge(overlay *BlobsConfig) {
	setString(&c.Driver, overlay.Driver)
	setString(&c.Bucket, overlay.Bucket)
	setString(&c.BasePath, overlay.BasePath)
	setString(&c.BaseURL, overlay.BaseURL)
	if size, err := units.FromHumanSize(overlay.MaxUploadSize); err == nil {
		c.MaxUploadSize = overlay.MaxUploadSize
		c.maxUploadSizeVal = size
	}

	setString(&c.S3.Region, overlay.S3.Region)
	setString(&c.S3.AccessKey, overlay.S3.AccessKey)
	setString(&c.S3.SecretKey, overlay.S3.SecretKey)
	setString(&c.S3.Endpoint, overlay.S3.Endpoint)
	setString(&c.S3.PublicBaseURL, overlay.S3.PublicBaseURL)
	setString(&c.S3.URLExpiry, overlay.S3.URLExpiry)
	if overlay.S3.UsePathStyle {
		c.S3.UsePathStyle = true
	}
}

func (c *BlobsConfig) loadDefaults() {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	if c.Bucket == "" {
		c.Bucket = "estate"
	}
	if c.BasePath == "" {
		c.BasePath = ".data/blobs"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "100MB"
	}
	if c.S3.URLExpiry == "" {
		c.S3.URLExpiry = "15m"
	}
}

func (c *BlobsConfig) loadEnv() {
	envString(&c.Driver, EnvBlobsDriver)
	envString(&c.BasePath, EnvBlobsBasePath)
	envString(&c.MaxUploadSize, EnvBlobsMaxUploadSize)
	envString(&c.Bucket, EnvS3Bucket)
	envString(&c.S3.Endpoint, EnvS3Endpoint)
	envString(&c.S3.Region, EnvAWSRegion)
	envString(&c.S3.AccessKey, EnvAWSAccessKey)
	envString(&c.S3.SecretKey, EnvAWSSecretKey)
}

func (c *BlobsConfig) validate() error {
	size, err := units.FromHumanSize(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size < 0 {
		return fmt.Errorf("max_upload_size must not be negative")
	}
	c.maxUploadSizeVal = size

	switch c.Driver {
	case DriverMemory:
	case DriverFilesystem:
		if c.BasePath == "" {
			return fmt.Errorf("base_path required")
		}
	case DriverS3:
		if c.S3.Region == "" {
			return fmt.Errorf("s3.region required")
		}
		if d, err := time.ParseDuration(c.S3.URLExpiry); err != nil || d <= 0 {
			return fmt.Errorf("invalid s3.url_expiry %q", c.S3.URLExpiry)
		}
	default:
		return fmt.Errorf("unknown driver %q (must be memory, filesystem, or s3)", c.Driver)
	}
	return nil
}
