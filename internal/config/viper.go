package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata" // business timezone must resolve on hosts without zoneinfo

	"fjacquet/claimflow/internal/aba"
	"fjacquet/claimflow/internal/claims"
	"fjacquet/claimflow/internal/matcher"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CLAIMFLOW_STORE_DRIVER.
const EnvPrefix = "CLAIMFLOW"

// DefaultTimezone is the business calendar used for claim reference and file dates.
const DefaultTimezone = "Australia/Sydney"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverPgx    = "pgx"
)

var (
	originatorIDPattern = regexp.MustCompile(`^\d{6}$`)
	bsbPattern          = regexp.MustCompile(`^\d{3}-?\d{3}$`)
	prefixPattern       = regexp.MustCompile(`^[A-Z]+$`)
)

// Config is the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Business struct {
		Timezone string `mapstructure:"timezone" yaml:"timezone"`
	} `mapstructure:"business" yaml:"business"`

	Store struct {
		Driver   string `mapstructure:"driver" yaml:"driver"`
		DSN      string `mapstructure:"dsn" yaml:"-"`
		Fixtures string `mapstructure:"fixtures" yaml:"fixtures"`
	} `mapstructure:"store" yaml:"store"`

	Matching struct {
		DomainConfidence      float64  `mapstructure:"domain_confidence" yaml:"domain_confidence"`
		HistoryConfidence     float64  `mapstructure:"history_confidence" yaml:"history_confidence"`
		HistoryWindowDays     int      `mapstructure:"history_window_days" yaml:"history_window_days"`
		HistoryMinOccurrences int      `mapstructure:"history_min_occurrences" yaml:"history_min_occurrences"`
		PublicDomains         []string `mapstructure:"public_domains" yaml:"public_domains"`
	} `mapstructure:"matching" yaml:"matching"`

	Claims struct {
		ReferencePrefix string `mapstructure:"reference_prefix" yaml:"reference_prefix"`
	} `mapstructure:"claims" yaml:"claims"`

	ABA struct {
		BankCode        string `mapstructure:"bank_code" yaml:"bank_code"`
		OriginatorName  string `mapstructure:"originator_name" yaml:"originator_name"`
		OriginatorID    string `mapstructure:"originator_id" yaml:"originator_id"`
		Description     string `mapstructure:"description" yaml:"description"`
		TraceBSB        string `mapstructure:"trace_bsb" yaml:"trace_bsb"`
		TraceAccount    string `mapstructure:"trace_account" yaml:"trace_account"`
		RemitterName    string `mapstructure:"remitter_name" yaml:"remitter_name"`
		FilenamePrefix  string `mapstructure:"filename_prefix" yaml:"filename_prefix"`
		Extension       string `mapstructure:"extension" yaml:"extension"`
		OutputDirectory string `mapstructure:"output_directory" yaml:"output_directory"`
	} `mapstructure:"aba" yaml:"aba"`

	Extraction struct {
		MaxQuantity float64 `mapstructure:"max_quantity" yaml:"max_quantity"`
	} `mapstructure:"extraction" yaml:"extraction"`
}

// Location returns the business timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Business.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid business.timezone %q: %w", c.Business.Timezone, err)
	}
	return loc, nil
}

// MatcherConfig converts the matching section.
func (c *Config) MatcherConfig() matcher.Config {
	return matcher.Config{
		DomainConfidence:      c.Matching.DomainConfidence,
		HistoryConfidence:     c.Matching.HistoryConfidence,
		HistoryWindowDays:     c.Matching.HistoryWindowDays,
		HistoryMinOccurrences: c.Matching.HistoryMinOccurrences,
		PublicDomains:         c.Matching.PublicDomains,
	}
}

// EncoderConfig converts the aba section.
func (c *Config) EncoderConfig() aba.Config {
	return aba.Config{
		BankCode:       c.ABA.BankCode,
		OriginatorName: c.ABA.OriginatorName,
		OriginatorID:   c.ABA.OriginatorID,
		Description:    c.ABA.Description,
		TraceBSB:       c.ABA.TraceBSB,
		TraceAccount:   c.ABA.TraceAccount,
		RemitterName:   c.ABA.RemitterName,
		FilenamePrefix: c.ABA.FilenamePrefix,
		Extension:      c.ABA.Extension,
	}
}

// InitializeConfig loads configuration from the default search path.
func InitializeConfig() (*Config, error) {
	return InitializeConfigFrom("")
}

// InitializeConfigFrom loads configuration. When file is empty, config.yaml is searched
// in $HOME/.claimflow, .claimflow and the working directory; a missing file is not an error.
func InitializeConfigFrom(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.claimflow")
		v.AddConfigPath(".claimflow")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("business.timezone", DefaultTimezone)

	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.fixtures", "claimflow.yaml")

	m := matcher.DefaultConfig()
	v.SetDefault("matching.domain_confidence", m.DomainConfidence)
	v.SetDefault("matching.history_confidence", m.HistoryConfidence)
	v.SetDefault("matching.history_window_days", m.HistoryWindowDays)
	v.SetDefault("matching.history_min_occurrences", m.HistoryMinOccurrences)
	v.SetDefault("matching.public_domains", m.PublicDomains)

	v.SetDefault("claims.reference_prefix", claims.DefaultReferencePrefix)

	a := aba.DefaultConfig()
	v.SetDefault("aba.bank_code", a.BankCode)
	v.SetDefault("aba.originator_name", a.OriginatorName)
	v.SetDefault("aba.originator_id", a.OriginatorID)
	v.SetDefault("aba.description", a.Description)
	v.SetDefault("aba.trace_bsb", a.TraceBSB)
	v.SetDefault("aba.trace_account", a.TraceAccount)
	v.SetDefault("aba.remitter_name", a.RemitterName)
	v.SetDefault("aba.filename_prefix", a.FilenamePrefix)
	v.SetDefault("aba.extension", a.Extension)
	v.SetDefault("aba.output_directory", ".")

	v.SetDefault("extraction.max_quantity", 10000)
}

func validateConfig(cfg *Config) error {
	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", cfg.Log.Format)
	}

	if cfg.Business.Timezone == "" {
		return fmt.Errorf("business.timezone must not be empty")
	}
	if _, err := cfg.Location(); err != nil {
		return err
	}

	switch cfg.Store.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPgx:
		if cfg.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for driver %s", cfg.Store.Driver)
		}
	default:
		return fmt.Errorf("invalid store driver: %s (must be memory, sqlite or pgx)", cfg.Store.Driver)
	}

	for name, c := range map[string]float64{
		"matching.domain_confidence":  cfg.Matching.DomainConfidence,
		"matching.history_confidence": cfg.Matching.HistoryConfidence,
	} {
		if c < 0 || c > 1 {
			return fmt.Errorf("%s must be between 0.0 and 1.0, got: %f", name, c)
		}
	}
	if cfg.Matching.HistoryWindowDays < 1 {
		return fmt.Errorf("matching.history_window_days must be positive, got: %d", cfg.Matching.HistoryWindowDays)
	}
	if cfg.Matching.HistoryMinOccurrences < 1 {
		return fmt.Errorf("matching.history_min_occurrences must be positive, got: %d", cfg.Matching.HistoryMinOccurrences)
	}

	if !prefixPattern.MatchString(cfg.Claims.ReferencePrefix) {
		return fmt.Errorf("claims.reference_prefix must be upper-case letters, got: %q", cfg.Claims.ReferencePrefix)
	}

	if !originatorIDPattern.MatchString(cfg.ABA.OriginatorID) {
		return fmt.Errorf("aba.originator_id must be 6 digits, got: %q", cfg.ABA.OriginatorID)
	}
	if !bsbPattern.MatchString(cfg.ABA.TraceBSB) {
		return fmt.Errorf("aba.trace_bsb must be a 6-digit BSB, got: %q", cfg.ABA.TraceBSB)
	}
	if cfg.ABA.FilenamePrefix == "" || cfg.ABA.Extension == "" {
		return fmt.Errorf("aba.filename_prefix and aba.extension must not be empty")
	}

	if cfg.Extraction.MaxQuantity <= 0 {
		return fmt.Errorf("extraction.max_quantity must be positive, got: %f", cfg.Extraction.MaxQuantity)
	}
	return nil
}
