package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/skyready/logbook-sync/internal/flagx"
	"github.com/skyready/logbook-sync/internal/timex"
)

// JsonConfig is the DTO for the optional JSON config file. Interval fields
// use timex.Duration so both "1m" strings and integer nanoseconds parse.
type JsonConfig struct {
	EndpointAddr    string         `json:"endpoint_addr"`
	DatabaseDSN     string         `json:"database_dsn"`
	SecretKey       string         `json:"secret_key"`
	RelayInterval   timex.Duration `json:"relay_interval"`
	EventsTable     string         `json:"events_table"`
	AWSRegion       string         `json:"aws_region"`
	AWSBaseEndpoint string         `json:"aws_base_endpoint"`
	AWSAccessKey    string         `json:"aws_access_key"`
	AWSSecretKey    string         `json:"aws_secret_key"`
	DBMaxOpenConns  int            `json:"db_max_open_conns"`
	DBMaxIdleConns  int            `json:"db_max_idle_conns"`
}

// parseJson overlays values from the file named by -c/-config, when given.
// Unreadable or invalid files panic: a half-applied config is worse than a
// crash at startup.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.RelayInterval.Duration != 0 {
		config.RelayInterval = time.Duration(c.RelayInterval.Duration)
	}
	if c.EventsTable != "" {
		config.EventsTable = c.EventsTable
	}
	if c.AWSRegion != "" {
		config.AWSRegion = c.AWSRegion
	}
	if c.AWSBaseEndpoint != "" {
		config.AWSBaseEndpoint = c.AWSBaseEndpoint
	}
	if c.AWSAccessKey != "" {
		config.AWSAccessKey = c.AWSAccessKey
	}
	if c.AWSSecretKey != "" {
		config.AWSSecretKey = c.AWSSecretKey
	}
	if c.DBMaxOpenConns != 0 {
		config.DBMaxOpenConns = c.DBMaxOpenConns
	}
	if c.DBMaxIdleConns != 0 {
		config.DBMaxIdleConns = c.DBMaxIdleConns
	}
}
