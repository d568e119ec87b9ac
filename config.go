package shroud

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultKey is the placeholder passphrase. It must be overridden in production.
const DefaultKey = "dummy-key"

// EnvPrefix prefixes every configuration environment variable.
const EnvPrefix = "SENSITIVE_DATA_DATA_CRYPT_"

// Config is the process-wide cipher configuration.
// It is read-only once handed to New.
//
// Env (prefixed with EnvPrefix): ENABLED, KEY_ALGORITHM, CIPHER_ALGORITHM, KEY.
type Config struct {
	// Enabled turns transparent encryption on. When false both hooks pass
	// values through untouched.
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// KeyAlgorithm binds the derived key material (e.g. "AES").
	KeyAlgorithm string `yaml:"key-algorithm" env:"KEY_ALGORITHM"`

	// CipherAlgorithm is the transformation used for every field (e.g. "AES/ECB/PKCS5Padding").
	CipherAlgorithm string `yaml:"cipher-algorithm" env:"CIPHER_ALGORITHM"`

	// Key is the passphrase the key material is derived from.
	Key string `yaml:"key" env:"KEY"`
}

// fileConfig mirrors the nesting used in configuration files:
//
//	sensitive-data:
//	  data-crypt:
//	    enabled: true
//	    key: change-me
type fileConfig struct {
	SensitiveData struct {
		DataCrypt Config `yaml:"data-crypt"`
	} `yaml:"sensitive-data"`
}

// DefaultConfig returns the configuration defaults: disabled, AES,
// AES/ECB/PKCS5Padding and the placeholder key.
func DefaultConfig() Config {
	return Config{
		Enabled:         false,
		KeyAlgorithm:    DefaultKeyAlgorithm,
		CipherAlgorithm: DefaultCipherAlgorithm,
		Key:             DefaultKey,
	}
}

// LoadConfig builds a Config from defaults, then the YAML file at path
// (skipped when path is empty), then environment variables.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := parseYAML(data, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("error getting env configs: %w", err)
	}

	return cfg, nil
}

// parseYAML overlays values present in data onto cfg.
func parseYAML(data []byte, cfg *Config) error {
	fc := fileConfig{}
	fc.SensitiveData.DataCrypt = *cfg
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	*cfg = fc.SensitiveData.DataCrypt
	return nil
}

// Validate checks the configuration can drive the interceptors.
// A disabled configuration is always valid.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	var errs []error
	if c.Key == "" {
		errs = append(errs, newConfigError(ErrInvalidConfiguration, "", "key"))
	}
	if !IsValidKeyAlgo(c.KeyAlgorithm) {
		errs = append(errs, newConfigError(ErrUnsupportedAlgorithm, c.KeyAlgorithm, "key-algorithm"))
	}
	if _, err := ParseTransformation(c.CipherAlgorithm); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// UsesPlaceholderKey reports whether Key is still the shipped placeholder.
func (c Config) UsesPlaceholderKey() bool {
	return c.Key == DefaultKey
}
