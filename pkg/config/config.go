// Package config loads lmstream provider profiles from a TOML file.
package config

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/papercomputeco/lmstream/pkg/completions"
	"github.com/papercomputeco/lmstream/pkg/embeddings"
	"github.com/papercomputeco/lmstream/pkg/provider"
	"github.com/papercomputeco/lmstream/pkg/sse"
	"github.com/papercomputeco/lmstream/pkg/tokens"
)

// Config is the lmstream configuration file.
type Config struct {
	Server   Server             `toml:"server"`
	Profiles map[string]Profile `toml:"profiles"`
}

// Server configures "lmstream serve".
type Server struct {
	// Address to listen on (e.g., ":8080")
	Listen string `toml:"listen"`
	Debug  bool   `toml:"debug"`

	// DefaultProfile is used by requests which don't name a profile.
	DefaultProfile string `toml:"default_profile"`
}

// Profile is a named provider, model and generation settings.
type Profile struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`

	// APIKey is used as is; APIKeyEnv names an environment variable holding it.
	APIKey    string `toml:"api_key"`
	APIKeyEnv string `toml:"api_key_env"`

	// Server replaces the provider host, e.g. "127.0.0.1:1234".
	Server     string `toml:"server"`
	HTTPS      bool   `toml:"https"`
	APIVersion string `toml:"api_version"`

	MaxTokens   int      `toml:"max_tokens"`
	Temperature *float64 `toml:"temperature"`

	// DonePolicy is "stop" (default) or "skip".
	DonePolicy string `toml:"done_policy"`
	// Tokenizer is "heuristic" (default) or a BPE encoding name such as "cl100k_base".
	Tokenizer string `toml:"tokenizer"`
	// Timeout bounds a whole request, e.g. "5m". Empty keeps the default.
	Timeout string `toml:"timeout"`
}

// DefaultPath returns ~/.lmstream/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not resolve home directory: %w", err)
	}
	return filepath.Join(home, ".lmstream", "config.toml"), nil
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	var c Config
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, fmt.Errorf("could not decode config %s: %w", path, err)
	}

	for name, p := range c.Profiles {
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("invalid profile %q: %w", name, err)
		}
	}

	if c.Server.DefaultProfile != "" {
		if _, ok := c.Profiles[c.Server.DefaultProfile]; !ok {
			return nil, fmt.Errorf("default profile %q is not defined", c.Server.DefaultProfile)
		}
	}
	return &c, nil
}

// Profile returns the named profile, or the default one for an empty name.
func (c *Config) Profile(name string) (Profile, error) {
	if name == "" {
		name = c.Server.DefaultProfile
	}
	if name == "" && len(c.Profiles) == 1 {
		for only := range c.Profiles {
			name = only
		}
	}

	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("profile %q not found", name)
	}
	return p, nil
}

// ProfileNames returns the sorted profile names.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p Profile) validate() error {
	if _, err := provider.Parse(p.Provider); err != nil {
		return err
	}
	if _, err := p.donePolicy(); err != nil {
		return err
	}
	if p.Timeout != "" {
		if _, err := time.ParseDuration(p.Timeout); err != nil {
			return fmt.Errorf("invalid timeout: %w", err)
		}
	}
	return nil
}

// Kind returns the profile's provider.
func (p Profile) Kind() provider.Kind {
	k, _ := provider.Parse(p.Provider)
	return k
}

// Key returns the API key, reading APIKeyEnv when APIKey is empty.
func (p Profile) Key() string {
	if p.APIKey != "" || p.APIKeyEnv == "" {
		return p.APIKey
	}
	return os.Getenv(p.APIKeyEnv)
}

func (p Profile) donePolicy() (sse.DonePolicy, error) {
	switch p.DonePolicy {
	case "", "stop":
		return sse.StopOnDone, nil
	case "skip":
		return sse.SkipDone, nil
	default:
		return sse.StopOnDone, fmt.Errorf("unknown done policy %q", p.DonePolicy)
	}
}

func (p Profile) counter() (tokens.Counter, error) {
	if p.Tokenizer == "" || p.Tokenizer == "heuristic" {
		return tokens.Heuristic, nil
	}
	return tokens.NewTiktoken(p.Tokenizer)
}

func (p Profile) httpClient() *http.Client {
	if p.Timeout == "" {
		return nil
	}
	d, _ := time.ParseDuration(p.Timeout)
	return &http.Client{Timeout: d}
}

// Request builds a completions request from the profile. Options in opts are
// applied after the profile's.
func (p Profile) Request(logger *zap.Logger, opts ...completions.Option) (*completions.Request, error) {
	kind, err := provider.Parse(p.Provider)
	if err != nil {
		return nil, err
	}
	policy, err := p.donePolicy()
	if err != nil {
		return nil, err
	}
	counter, err := p.counter()
	if err != nil {
		return nil, err
	}

	base := []completions.Option{
		completions.WithLogger(logger),
		completions.WithTokenCounter(counter),
		completions.WithDonePolicy(policy),
		completions.WithMaxTokens(p.MaxTokens),
		completions.WithHTTPClient(p.httpClient()),
	}
	if p.Server != "" {
		base = append(base, completions.WithServer(p.Server, p.HTTPS))
	}
	if p.APIVersion != "" {
		base = append(base, completions.WithAPIVersion(p.APIVersion))
	}
	if p.Temperature != nil {
		base = append(base, completions.WithTemperature(*p.Temperature))
	}

	return completions.New(kind, p.Key(), p.Model, append(base, opts...)...), nil
}

// Embeddings builds an embeddings request from the profile.
func (p Profile) Embeddings(logger *zap.Logger) (*embeddings.Request, error) {
	kind, err := provider.Parse(p.Provider)
	if err != nil {
		return nil, err
	}

	opts := []embeddings.Option{
		embeddings.WithLogger(logger),
		embeddings.WithHTTPClient(p.httpClient()),
	}
	if p.Server != "" {
		opts = append(opts, embeddings.WithServer(p.Server, p.HTTPS))
	}
	return embeddings.New(kind, p.Key(), p.Model, opts...), nil
}
