// Package config holds the REPL binary's command-line configuration,
// in the same Bind/Preflight shape as the teacher's
// internal/source/server.Config.
package config

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/K0n4ta13/tesebada/internal/schema"
)

// Config contains the user-visible configuration for running the
// coordinator's REPL.
type Config struct {
	SchemaFile  string
	IDFile      string
	Timeout     time.Duration
	MetricsAddr string
}

// Bind registers flags onto flags.
func (c *Config) Bind(flags *pflag.FlagSet) {
	flags.StringVar(
		&c.SchemaFile,
		"schema",
		"schema.toml",
		"path to the schema document describing tables, fields, and fragments")
	flags.StringVar(
		&c.IDFile,
		"idfile",
		"./id",
		"path to the file persisting the next synthetic IdCliente value across restarts")
	flags.DurationVar(
		&c.Timeout,
		"timeout",
		5*time.Second,
		"per-participant timeout for the router's two-phase commit handshake")
	flags.StringVar(
		&c.MetricsAddr,
		"metricsAddr",
		":9090",
		"the network address to serve /metrics on")
}

// Preflight validates the configuration after flags are parsed.
func (c *Config) Preflight() error {
	if c.SchemaFile == "" {
		return errors.New("schema unset")
	}
	if c.IDFile == "" {
		return errors.New("idfile unset")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

// LoadSchema decodes and compiles the schema document at c.SchemaFile.
func (c *Config) LoadSchema() (*schema.Catalog, error) {
	var doc schema.Document
	if _, err := toml.DecodeFile(c.SchemaFile, &doc); err != nil {
		return nil, errors.Wrap(err, "could not decode schema document")
	}
	return schema.Compile(doc)
}
