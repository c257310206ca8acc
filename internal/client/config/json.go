package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/diary/internal/timex"
)

// JsonConfig is the on-disk shape of the CLI config. Keys absent from the
// file keep their current values.
type JsonConfig struct {
	ServerEndpointAddr *string         `json:"server_endpoint_addr"`
	S3Bucket           *string         `json:"s3_bucket"`
	S3Region           *string         `json:"s3_region"`
	S3Endpoint         *string         `json:"s3_endpoint"`
	S3AccessKey        *string         `json:"s3_access_key"`
	S3SecretKey        *string         `json:"s3_secret_key"`
	S3PartSize         *int64          `json:"s3_part_size"`
	DatabasePath       *string         `json:"database_path"`
	CacheDir           *string         `json:"cache_dir"`
	Zone               *string         `json:"zone"`
	RequestTimeout     *timex.Duration `json:"request_timeout"`
	Verbose            *bool           `json:"verbose"`
}

func (c *Config) loadJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	apply(c, &jc)
	return nil
}

func apply(c *Config, jc *JsonConfig) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&c.ServerEndpointAddr, jc.ServerEndpointAddr)
	set(&c.S3Bucket, jc.S3Bucket)
	set(&c.S3Region, jc.S3Region)
	set(&c.S3Endpoint, jc.S3Endpoint)
	set(&c.S3AccessKey, jc.S3AccessKey)
	set(&c.S3SecretKey, jc.S3SecretKey)
	set(&c.DatabasePath, jc.DatabasePath)
	set(&c.CacheDir, jc.CacheDir)
	set(&c.Zone, jc.Zone)

	if jc.S3PartSize != nil {
		c.S3PartSize = *jc.S3PartSize
	}
	if jc.RequestTimeout != nil {
		c.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.Verbose != nil {
		c.Verbose = *jc.Verbose
	}
}
