package config

import (
	"fmt"
	"time"
)

// Config holds runtime settings for the diary CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the diary gRPC server.
//   - S3*: bucket, region, optional endpoint and static credentials of the
//     image store. S3PartSize is the multipart chunk size in bytes.
//   - DatabasePath: SQLite file holding the session token and ledgers.
//   - CacheDir: where fetched images are kept.
//   - Zone: IANA zone used to group entries by day.
//   - RequestTimeout: deadline for single request/response calls.
type Config struct {
	ConfigFile         string
	ServerEndpointAddr string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3PartSize  int64

	DatabasePath   string
	CacheDir       string
	Zone           string
	RequestTimeout time.Duration
	Verbose        bool
}

// LoadDefaults populates c with defaults suited to a local docker-compose
// stack (diary server plus MinIO).
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.S3Bucket = "diary"
	c.S3Region = "us-east-1"
	c.S3Endpoint = "http://127.0.0.1:9000"
	c.S3AccessKey = "minioadmin"
	c.S3SecretKey = "minioadmin"
	c.S3PartSize = 5 << 20
	c.DatabasePath = "diary.db"
	c.CacheDir = "cache"
	c.Zone = "UTC"
	c.RequestTimeout = 10 * time.Second
	c.Verbose = false
}

// Location resolves Zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Zone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Zone)
	if err != nil {
		return nil, fmt.Errorf("zone %q: %w", c.Zone, err)
	}
	return loc, nil
}
