package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// IMAPConfig holds the mailbox connection settings.
type IMAPConfig struct {
	// Server is the IMAP server hostname.
	Server string `mapstructure:"server" yaml:"server"`

	// Port is the IMAP server port.
	Port string `mapstructure:"port" yaml:"port"`

	// User is the mailbox login name.
	User string `mapstructure:"user" yaml:"user"`

	// Password is the mailbox password. May be blank when
	// credentials.use_keyring is set.
	Password string `mapstructure:"password" yaml:"password"`

	// TLS selects implicit TLS; when false, STARTTLS is used.
	TLS bool `mapstructure:"tls" yaml:"tls"`
}

// BoardsConfig holds the Azure DevOps connection settings.
type BoardsConfig struct {
	// Organization is the organization root URL
	// (e.g., https://dev.azure.com/acme).
	Organization string `mapstructure:"organization" yaml:"organization"`

	// Project is the project name within the organization.
	Project string `mapstructure:"project" yaml:"project"`

	// PAT is the Personal Access Token. May be blank when
	// credentials.use_keyring is set.
	PAT string `mapstructure:"pat" yaml:"pat"`

	// ItemType is the work item type to create (e.g., "Issue").
	ItemType string `mapstructure:"item_type" yaml:"item_type"`
}

// JournalConfig controls the optional submission journal.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// CredentialsConfig controls where secrets are read from.
type CredentialsConfig struct {
	// UseKeyring reads the IMAP password and boards PAT from the OS
	// keyring instead of the config file.
	UseKeyring bool `mapstructure:"use_keyring" yaml:"use_keyring"`
}

// Config is the top-level application configuration.
type Config struct {
	IMAP            IMAPConfig        `mapstructure:"imap" yaml:"imap"`
	Boards          BoardsConfig      `mapstructure:"boards" yaml:"boards"`
	Senders         []string          `mapstructure:"senders" yaml:"senders"`
	PollIntervalSec int               `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
	Journal         JournalConfig     `mapstructure:"journal" yaml:"journal"`
	Credentials     CredentialsConfig `mapstructure:"credentials" yaml:"credentials"`
}

// DefaultConfigPath returns the default configuration file path,
// located at ~/.config/mailboard/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "mailboard", "config.yaml")
}

// defaultConfig returns the configuration used when no file exists.
func defaultConfig() *Config {
	return &Config{
		IMAP: IMAPConfig{
			Server: "imap.gmail.com",
			Port:   "993",
			TLS:    true,
		},
		Boards: BoardsConfig{
			ItemType: "Issue",
		},
		Senders:         []string{"azuredevops@microsoft.com"},
		PollIntervalSec: 60,
		Journal: JournalConfig{
			Path: filepath.Join(".", "mailboard.db"),
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using
// Viper. A missing file yields the default configuration; Validate
// decides whether that is usable.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("imap.server", "imap.gmail.com")
	v.SetDefault("imap.port", "993")
	v.SetDefault("imap.tls", true)
	v.SetDefault("boards.item_type", "Issue")
	v.SetDefault("senders", []string{"azuredevops@microsoft.com"})
	v.SetDefault("poll_interval_sec", 60)
	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.path", filepath.Join(".", "mailboard.db"))
	v.SetDefault("credentials.use_keyring", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	// Drop blank sender entries so each cycle queries real addresses only.
	senders := cfg.Senders[:0]
	for _, s := range cfg.Senders {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			senders = append(senders, trimmed)
		}
	}
	cfg.Senders = senders

	if cfg.PollIntervalSec <= 0 {
		cfg.PollIntervalSec = 60
	}

	return cfg, nil
}

// Validate reports every missing required setting. Secrets are only
// required in the file when the keyring is not in use.
func (c *Config) Validate() error {
	var missing []string

	if c.IMAP.User == "" {
		missing = append(missing, "imap.user")
	}
	if c.IMAP.Password == "" && !c.Credentials.UseKeyring {
		missing = append(missing, "imap.password")
	}
	if c.Boards.Organization == "" {
		missing = append(missing, "boards.organization")
	}
	if c.Boards.Project == "" {
		missing = append(missing, "boards.project")
	}
	if c.Boards.PAT == "" && !c.Credentials.UseKeyring {
		missing = append(missing, "boards.pat")
	}
	if len(c.Senders) == 0 {
		missing = append(missing, "senders")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}
