package config

import (
	"github.com/spf13/pflag"
)

// BindFlags registers the persistent flags of the CLI on fs, with the
// current values of c as defaults.
//
//	-c, --config      JSON config file
//	-a, --server      address and port of the diary server
//	-b, --bucket      S3 bucket
//	-g, --region      S3 region
//	-e, --endpoint    S3 endpoint (empty for AWS)
//	-u, --access-key  S3 access key
//	-p, --secret-key  S3 secret key
//	    --db          SQLite database path
//	    --cache       image cache directory
//	-z, --zone        IANA zone used to group entries
//	-t, --timeout     request timeout
//	-v, --verbose     log at debug level
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.ConfigFile, "config", "c", c.ConfigFile, "JSON config file")
	fs.StringVarP(&c.ServerEndpointAddr, "server", "a", c.ServerEndpointAddr, "address and port of the diary server")
	fs.StringVarP(&c.S3Bucket, "bucket", "b", c.S3Bucket, "S3 bucket for images")
	fs.StringVarP(&c.S3Region, "region", "g", c.S3Region, "S3 region")
	fs.StringVarP(&c.S3Endpoint, "endpoint", "e", c.S3Endpoint, "S3 endpoint, empty for AWS")
	fs.StringVarP(&c.S3AccessKey, "access-key", "u", c.S3AccessKey, "S3 access key")
	fs.StringVarP(&c.S3SecretKey, "secret-key", "p", c.S3SecretKey, "S3 secret key")
	fs.StringVar(&c.DatabasePath, "db", c.DatabasePath, "local SQLite database")
	fs.StringVar(&c.CacheDir, "cache", c.CacheDir, "image cache directory")
	fs.StringVarP(&c.Zone, "zone", "z", c.Zone, "IANA time zone used to group entries by day")
	fs.DurationVarP(&c.RequestTimeout, "timeout", "t", c.RequestTimeout, "request timeout")
	fs.BoolVarP(&c.Verbose, "verbose", "v", c.Verbose, "verbose logging")
}

// Resolve overlays the JSON file named by --config and then re-applies
// every flag set on the command line, so flags win over the file.
func (c *Config) Resolve(fs *pflag.FlagSet) error {
	if c.ConfigFile == "" {
		return nil
	}

	changed := map[string]string{}
	fs.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	if err := c.loadJSON(c.ConfigFile); err != nil {
		return err
	}

	for name, value := range changed {
		if err := fs.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}
