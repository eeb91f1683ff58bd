package attachments

import (
	"errors"
	"fmt"

	"github.com/freezeflowai/hvac-pm-platform/internal/pkg/env"
)

// Config holds object storage configuration for maintenance attachments
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Enabled         bool
}

// LoadConfig loads attachment storage configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Enabled:         env.GetEnv("ATTACHMENTS_ENABLED", "false") == "true",
	}

	// Validate required fields if attachment storage is enabled
	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when attachments are enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when attachments are enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when attachments are enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if attachment storage is configured and enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// ObjectKey generates a standardized object key for a maintenance attachment.
// Format: attachments/<company>/<record>/<uuid><ext>
func (c *Config) ObjectKey(companyID, recordID uint, attachmentUUID, fileExtension string) string {
	return fmt.Sprintf("attachments/%d/%d/%s%s", companyID, recordID, attachmentUUID, fileExtension)
}

// GetAppEnv returns the current application environment
func GetAppEnv() string {
	return env.GetEnv("APP_ENV", "dev")
}
