package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/diary/internal/flagx"
)

var knownFlags = flagx.Known{
	"-a": true,
	"-m": true,
	"-d": true,
	"-s": true,
	"-t": true,
	"-l": false,
}

// parseFlags overlays flags from os.Args onto config.
//
//	-a string   gRPC bind address (e.g. ":50051")
//	-m string   metrics bind address, "" disables
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-l bool     follow LISTEN/NOTIFY for live streams
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "address and port for /metrics")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	tokenMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	fs.BoolVar(&config.ListenNotify, "l", config.ListenNotify, "follow postgres LISTEN/NOTIFY")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*tokenMinutes) * time.Minute
}
