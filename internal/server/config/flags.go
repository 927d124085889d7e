package config

import (
	"flag"
	"os"
	"time"

	"github.com/skyready/logbook-sync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-i int      relay interval, seconds
//	-t string   DynamoDB events table
//	-g string   AWS region
//	-e string   AWS base endpoint (e.g., "http://127.0.0.1:8000/")
//	-u string   AWS access key
//	-p string   AWS secret key
//
// os.Args is first filtered to the flags handled here (flagx.FilterArgs)
// to avoid collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-i", "-t", "-g", "-e", "-u", "-p"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	relayInterval := fs.Int("i", int(config.RelayInterval.Seconds()), "relay interval (in seconds)")

	fs.StringVar(&config.EventsTable, "t", config.EventsTable, "events table name")
	fs.StringVar(&config.AWSRegion, "g", config.AWSRegion, "AWS region")
	fs.StringVar(&config.AWSBaseEndpoint, "e", config.AWSBaseEndpoint, "AWS base endpoint")
	fs.StringVar(&config.AWSAccessKey, "u", config.AWSAccessKey, "AWS access key")
	fs.StringVar(&config.AWSSecretKey, "p", config.AWSSecretKey, "AWS secret key")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.RelayInterval = time.Duration(*relayInterval) * time.Second
}
