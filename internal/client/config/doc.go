// Package config loads runtime configuration for the diary CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file named by --config/-c.
//  3. Command-line flags, which override earlier values.
//
// Flags are cobra persistent flags bound with (*Config).BindFlags; Resolve
// applies the JSON file underneath whatever flags were set.
//
// # JSON schema
//
// Durations accept strings like "10s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "s3_bucket": "diary",
//	  "s3_endpoint": "http://127.0.0.1:9000",
//	  "database_path": "diary.db",
//	  "zone": "Europe/Riga",
//	  "request_timeout": "10s"
//	}
package config
