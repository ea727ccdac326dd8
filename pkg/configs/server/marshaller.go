package server

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	ServerPort string `yaml:"port"`
	DBURI      string `yaml:"dburi"`

	// path to the database schema repository. Empty disables migration
	// and version watching.
	SchemaRepository string `yaml:"schemaRepository"`

	Auth    AuthConfig    `yaml:"auth"`
	Uploads UploadsConfig `yaml:"uploads"`
	Blob    BlobConfig    `yaml:"blob"`

	TeamworkDesk TeamworkDeskConfig `yaml:"teamworkDesk"`
}

type AuthConfig struct {
	// HMAC secret for session tokens. May be overridden by env var
	// DATAPRESS_JWT_SECRET.
	JWTSecret string `yaml:"jwtSecret"`

	// durations in time.ParseDuration format, e.g. "24h".
	TokenExpiry  string `yaml:"tokenExpiry"`
	InviteExpiry string `yaml:"inviteExpiry"`

	// hex-encoded 32 byte AES key for api credentials at rest.
	// Empty means credentials are stored as tagged plaintext.
	// May be overridden by env var DATAPRESS_ENCRYPTION_KEY.
	EncryptionKey string `yaml:"encryptionKey"`
}

type UploadsConfig struct {
	MaxFileSizeBytes int64 `yaml:"maxFileSizeBytes"`
}

type BlobConfig struct {
	// "fs", "s3" or "memory"
	Driver string `yaml:"driver"`

	FS FSBlobConfig `yaml:"fs"`
	S3 S3BlobConfig `yaml:"s3"`
}

type FSBlobConfig struct {
	Root string `yaml:"root"`
}

type S3BlobConfig struct {
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	Prefix   string `yaml:"prefix"`
}

type TeamworkDeskConfig struct {
	// overrides https://<site>.teamwork.com/desk/api/v2 .
	// For tests and self-hosted gateways.
	BaseURL string `yaml:"baseUrl"`
}

// TokenExpiryOrDefault applies the 24h default of the session tokens.
func (c AuthConfig) TokenExpiryOrDefault() time.Duration {
	if d, err := time.ParseDuration(c.TokenExpiry); err == nil && 0 < d {
		return d
	}
	return 24 * time.Hour
}

// InviteExpiryOrDefault applies the 7 day default of invite tokens.
func (c AuthConfig) InviteExpiryOrDefault() time.Duration {
	if d, err := time.ParseDuration(c.InviteExpiry); err == nil && 0 < d {
		return d
	}
	return 7 * 24 * time.Hour
}

// MaxFileSizeOrDefault caps file uploads at 50MiB unless configured.
func (c UploadsConfig) MaxFileSizeOrDefault() int64 {
	if c.MaxFileSizeBytes <= 0 {
		return 50 << 20
	}
	return c.MaxFileSizeBytes
}

func LoadServerConfig(filepath string) (*ServerConfig, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}
	return Unmarshal(content)
}

func Unmarshal(conf []byte) (*ServerConfig, error) {
	var out ServerConfig
	err := yaml.Unmarshal(conf, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
