package config

import (
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/phalanx/pkg/cassandra"
	"github.com/pseudomuto/phalanx/pkg/consts"
	"github.com/pseudomuto/phalanx/pkg/errs"
	"github.com/pseudomuto/phalanx/pkg/migrator"
	"gopkg.in/yaml.v3"
)

const redacted = "********"

type (
	// Client holds the settings used to connect to the cluster.
	Client struct {
		// Hosts are the contact points of the cluster
		Hosts []string `yaml:"hosts,omitempty"`

		// Port is the native protocol port
		Port int `yaml:"port,omitempty"`

		// ProtocolVersion is the native protocol version to use (1-5)
		ProtocolVersion int `yaml:"protocolVersion,omitempty"`

		// Keyspace is the keyspace being migrated
		Keyspace string `yaml:"keyspace,omitempty"`

		Username string `yaml:"username,omitempty"`
		Password string `yaml:"password,omitempty"`

		// Consistency is the default consistency for every migration statement
		Consistency string `yaml:"consistency,omitempty"`

		// Timeout bounds connecting and each statement (e.g. 10s)
		Timeout time.Duration `yaml:"timeout,omitempty"`

		// TLS enables encrypted (and optionally mutual TLS) connections
		TLS TLS `yaml:"tls,omitempty"`
	}

	// TLS holds the certificate files used for encrypted connections.
	TLS struct {
		CAFile   string `yaml:"caFile,omitempty"`
		CertFile string `yaml:"certFile,omitempty"`
		KeyFile  string `yaml:"keyFile,omitempty"`

		// VerifyHost checks the server certificate's host name. Nil means not set.
		VerifyHost *bool `yaml:"verifyHost,omitempty"`
	}

	// Migration controls how migration files are discovered and applied.
	Migration struct {
		// Directory is the path containing the migration files
		Directory string `yaml:"directory,omitempty"`

		// FilePrefix must start every migration file name (e.g. "v"). Nil means
		// not set; an empty prefix overrides a prefix from another source.
		FilePrefix *string `yaml:"filePrefix,omitempty"`

		// FileSeparator splits the version from the description
		FileSeparator string `yaml:"fileSeparator,omitempty"`

		// FileExtension must end every migration file name
		FileExtension string `yaml:"fileExtension,omitempty"`

		// InvocationDelay is the pause, in seconds, after each installed migration
		InvocationDelay *int `yaml:"invocationDelay,omitempty"`

		// IgnoreHistoricalHashes skips verifying installed migrations against their files
		IgnoreHistoricalHashes *bool `yaml:"ignoreHistoricalHashes,omitempty"`
	}

	// Config is the complete phalanx configuration.
	//
	// The same type is used for the built-in defaults, the YAML config file and
	// the command line overrides. Zero values mean "not set" so the three
	// sources can be layered with Merge.
	Config struct {
		Client            Client    `yaml:"client"`
		PhalanxStateTable string    `yaml:"phalanxStateTable,omitempty"`
		Migration         Migration `yaml:"migration"`
	}
)

// Defaults returns the built-in configuration that every other source is
// layered on top of.
func Defaults() *Config {
	return &Config{
		Client: Client{
			Consistency: consts.DefaultConsistency,
		},
		PhalanxStateTable: consts.DefaultStateTable,
		Migration: Migration{
			FileSeparator:          consts.DefaultFileSeparator,
			FileExtension:          consts.DefaultFileExtension,
			InvocationDelay:        ptr(0),
			IgnoreHistoricalHashes: ptr(false),
		},
	}
}

// LoadConfig parses a configuration from the provided io.Reader.
//
// Only the keys present in the document are set; use Merge to layer the
// result on top of Defaults. An empty document yields an empty Config.
//
// Example:
//
//	yamlData := `
//	client:
//	  hosts: [127.0.0.1]
//	  port: 9042
//	  protocolVersion: 4
//	  keyspace: my_keyspace
//	migration:
//	  directory: migrations
//	`
//
//	cfg, err := config.LoadConfig(strings.NewReader(yamlData))
//	if err != nil {
//		panic(err)
//	}
//
//	fmt.Printf("Keyspace: %s\n", cfg.Client.Keyspace)
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	return &cfg, nil
}

// LoadConfigFile loads a configuration from path. A missing file is not an
// error: nil is returned so callers can fall back to defaults and flags.
//
// Example:
//
//	fileCfg, err := config.LoadConfigFile("phalanx.yml")
//	if err != nil {
//		log.Fatal("Failed to load config:", err)
//	}
//
//	cfg := config.Defaults().Merge(fileCfg)
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}

// Merge returns a new Config with every value set in over taking precedence
// over the receiver. A nil over returns a copy of the receiver.
func (c *Config) Merge(over *Config) *Config {
	out := c.clone()
	if over == nil {
		return out
	}

	if len(over.Client.Hosts) > 0 {
		out.Client.Hosts = slices.Clone(over.Client.Hosts)
	}
	mergeValue(&out.Client.Port, over.Client.Port)
	mergeValue(&out.Client.ProtocolVersion, over.Client.ProtocolVersion)
	mergeValue(&out.Client.Keyspace, over.Client.Keyspace)
	mergeValue(&out.Client.Username, over.Client.Username)
	mergeValue(&out.Client.Password, over.Client.Password)
	mergeValue(&out.Client.Consistency, over.Client.Consistency)
	mergeValue(&out.Client.Timeout, over.Client.Timeout)
	mergeValue(&out.Client.TLS.CAFile, over.Client.TLS.CAFile)
	mergeValue(&out.Client.TLS.CertFile, over.Client.TLS.CertFile)
	mergeValue(&out.Client.TLS.KeyFile, over.Client.TLS.KeyFile)
	if over.Client.TLS.VerifyHost != nil {
		out.Client.TLS.VerifyHost = ptr(*over.Client.TLS.VerifyHost)
	}

	mergeValue(&out.PhalanxStateTable, over.PhalanxStateTable)

	mergeValue(&out.Migration.Directory, over.Migration.Directory)
	if over.Migration.FilePrefix != nil {
		out.Migration.FilePrefix = ptr(*over.Migration.FilePrefix)
	}
	mergeValue(&out.Migration.FileSeparator, over.Migration.FileSeparator)
	mergeValue(&out.Migration.FileExtension, over.Migration.FileExtension)
	if over.Migration.InvocationDelay != nil {
		out.Migration.InvocationDelay = ptr(*over.Migration.InvocationDelay)
	}
	if over.Migration.IgnoreHistoricalHashes != nil {
		out.Migration.IgnoreHistoricalHashes = ptr(*over.Migration.IgnoreHistoricalHashes)
	}

	return out
}

// Validate checks that the configuration is complete enough to connect to the
// cluster. All failures are errs.InvalidConfig errors.
//
// The migration directory and file separator are not checked here since
// commands like clean never read migration files.
func (c *Config) Validate() error {
	switch {
	case len(c.Client.Hosts) == 0:
		return errs.New(errs.InvalidConfig, "client hosts are not defined")
	case c.Client.Port <= 0:
		return errs.New(errs.InvalidConfig, "client port is not defined")
	case c.Client.ProtocolVersion == 0:
		return errs.New(errs.InvalidConfig, "client protocolVersion is not defined")
	case c.Client.ProtocolVersion < 1 || c.Client.ProtocolVersion > 5:
		return errs.New(errs.InvalidConfig, "client protocolVersion %d is invalid", c.Client.ProtocolVersion)
	case c.Client.Keyspace == "":
		return errs.New(errs.InvalidConfig, "client keyspace is not defined")
	case c.PhalanxStateTable == "":
		return errs.New(errs.InvalidConfig, "state table name is not defined")
	case c.Migration.InvocationDelay != nil && *c.Migration.InvocationDelay < 0:
		return errs.New(errs.InvalidConfig, "migration invocationDelay %d is invalid", *c.Migration.InvocationDelay)
	}

	if c.Client.Consistency != "" {
		if _, err := cassandra.ParseConsistency(c.Client.Consistency); err != nil {
			return err
		}
	}

	return nil
}

// ClientOptions converts the client section into options for a cassandra
// client scoped to the configured keyspace.
func (c *Config) ClientOptions() (cassandra.ClientOptions, error) {
	consistency, err := cassandra.ParseConsistency(c.consistency())
	if err != nil {
		return cassandra.ClientOptions{}, err
	}

	return cassandra.ClientOptions{
		Hosts:           slices.Clone(c.Client.Hosts),
		Port:            c.Client.Port,
		ProtocolVersion: c.Client.ProtocolVersion,
		Keyspace:        c.Client.Keyspace,
		Username:        c.Client.Username,
		Password:        c.Client.Password,
		Consistency:     consistency,
		Timeout:         c.Client.Timeout,
		TLS:             cassandra.TLSOptions{
			CAFile:     c.Client.TLS.CAFile,
			CertFile:   c.Client.TLS.CertFile,
			KeyFile:    c.Client.TLS.KeyFile,
			VerifyHost: c.Client.TLS.VerifyHost != nil && *c.Client.TLS.VerifyHost,
		},
	}, nil
}

// FileNameOptions returns the rules used to recognize migration files.
func (c *Config) FileNameOptions() migrator.FileNameOptions {
	return migrator.FileNameOptions{
		Prefix:    c.FilePrefix(),
		Separator: c.Migration.FileSeparator,
		Extension: c.Migration.FileExtension,
	}
}

// FilePrefix returns the required migration file name prefix, if any.
func (c *Config) FilePrefix() string {
	if c.Migration.FilePrefix == nil {
		return ""
	}

	return *c.Migration.FilePrefix
}

// InvocationDelay returns the configured pause after each installed migration.
func (c *Config) InvocationDelay() time.Duration {
	if c.Migration.InvocationDelay == nil {
		return 0
	}

	return time.Duration(*c.Migration.InvocationDelay) * time.Second
}

// IgnoreHistoricalHashes reports whether installed migrations are verified.
func (c *Config) IgnoreHistoricalHashes() bool {
	return c.Migration.IgnoreHistoricalHashes != nil && *c.Migration.IgnoreHistoricalHashes
}

// ToYAML renders the configuration as YAML with the password redacted.
func (c *Config) ToYAML() (string, error) {
	out := c.clone()
	if out.Client.Password != "" {
		out.Client.Password = redacted
	}

	var sb strings.Builder
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)

	if err := enc.Encode(out); err != nil {
		return "", errors.Wrap(err, "failed to marshal config")
	}

	if err := enc.Close(); err != nil {
		return "", errors.Wrap(err, "failed to marshal config")
	}

	return sb.String(), nil
}

func (c *Config) consistency() string {
	if c.Client.Consistency == "" {
		return consts.DefaultConsistency
	}

	return c.Client.Consistency
}

func (c *Config) clone() *Config {
	out := *c
	out.Client.Hosts = slices.Clone(c.Client.Hosts)
	if c.Client.TLS.VerifyHost != nil {
		out.Client.TLS.VerifyHost = ptr(*c.Client.TLS.VerifyHost)
	}
	if c.Migration.FilePrefix != nil {
		out.Migration.FilePrefix = ptr(*c.Migration.FilePrefix)
	}
	if c.Migration.InvocationDelay != nil {
		out.Migration.InvocationDelay = ptr(*c.Migration.InvocationDelay)
	}
	if c.Migration.IgnoreHistoricalHashes != nil {
		out.Migration.IgnoreHistoricalHashes = ptr(*c.Migration.IgnoreHistoricalHashes)
	}

	return &out
}

func mergeValue[T comparable](dst *T, v T) {
	var zero T
	if v != zero {
		*dst = v
	}
}

func ptr[T any](v T) *T {
	return &v
}
