package seal

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/i5heu/ouroboros-seal/pkg/query"
)

// ErrNoKeyMaterial is returned by Open when the config carries neither
// a passphrase nor a raw key. Encrypted records written with an
// ephemeral key would be unreadable after restart.
var ErrNoKeyMaterial = errors.New("seal: config needs a passphrase or a hex key")

// Config configures a store instance.
type Config struct {
	// Path is the data directory.
	Path string

	// MinimumFreeGB refuses startup when the volume has less free
	// space. Zero disables the check.
	MinimumFreeGB int

	// Passphrase derives the encryption key. Ignored when KeyHex is
	// set.
	Passphrase string

	// Salt is mixed into the passphrase derivation. Optional, but once
	// records are written with a salt it must stay the same.
	Salt string

	// KeyHex is a raw 256-bit key in hex, for deployments with their
	// own key management.
	KeyHex string

	// RewriteRecovered re-persists a record after error correction
	// rebuilt it on read, restoring full parity headroom. DefaultConfig
	// enables it.
	RewriteRecovered bool

	// ExclusionPolicy decides what negation queries yield when their
	// exclusion entry is missing.
	ExclusionPolicy query.ExclusionPolicy

	// Logger is optional; a tinted stderr logger is used when nil.
	Logger *slog.Logger
}

// DefaultConfig returns the baseline configuration: rewrite recovered
// records, empty results for missing exclusions.
func DefaultConfig() Config {
	return Config{
		RewriteRecovered: true,
		ExclusionPolicy:  query.PolicyReturnEmpty,
	}
}

type fileConfig struct {
	Path             string `yaml:"path"`
	MinimumFreeGB    int    `yaml:"minimum_free_gb"`
	Passphrase       string `yaml:"passphrase"`
	Salt             string `yaml:"salt"`
	Key              string `yaml:"key"`
	RewriteRecovered *bool  `yaml:"rewrite_recovered"`
	ExclusionPolicy  string `yaml:"exclusion_policy"`
}

// LoadConfig reads a YAML config file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.UnmarshalStrict(raw, &fc); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg := DefaultConfig()
	cfg.Path = fc.Path
	cfg.MinimumFreeGB = fc.MinimumFreeGB
	cfg.Passphrase = fc.Passphrase
	cfg.Salt = fc.Salt
	cfg.KeyHex = fc.Key
	if fc.RewriteRecovered != nil {
		cfg.RewriteRecovered = *fc.RewriteRecovered
	}
	if fc.ExclusionPolicy != "" {
		policy, err := parsePolicy(fc.ExclusionPolicy)
		if err != nil {
			return Config{}, err
		}
		cfg.ExclusionPolicy = policy
	}
	return cfg, nil
}

func parsePolicy(s string) (query.ExclusionPolicy, error) {
	switch s {
	case "return-empty":
		return query.PolicyReturnEmpty, nil
	case "return-all":
		return query.PolicyReturnAll, nil
	case "return-error":
		return query.PolicyReturnError, nil
	default:
		return 0, fmt.Errorf("seal: unknown exclusion policy %q", s)
	}
}
