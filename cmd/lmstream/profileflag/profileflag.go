// Package profileflag resolves the provider profile a command runs against,
// from the config file or from flags alone.
package profileflag

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/lmstream/pkg/config"
)

// Flags are the profile selection flags shared by commands.
type Flags struct {
	ConfigPath string
	Profile    string

	Provider  string
	Model     string
	APIKeyEnv string
	Server    string
	HTTPS     bool
}

// Register adds the profile flags to cmd.
func (f *Flags) Register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.ConfigPath, "config", "c", "", "Path to config file (default ~/.lmstream/config.toml)")
	cmd.Flags().StringVarP(&f.Profile, "profile", "p", "", "Profile name from the config file")
	cmd.Flags().StringVar(&f.Provider, "provider", "", "Provider to use without a config file (e.g. openai, anthropic)")
	cmd.Flags().StringVarP(&f.Model, "model", "m", "", "Model, overriding the profile's")
	cmd.Flags().StringVar(&f.APIKeyEnv, "api-key-env", "", "Environment variable holding the API key")
	cmd.Flags().StringVar(&f.Server, "server", "", "Server address replacing the provider host (e.g. 127.0.0.1:1234)")
	cmd.Flags().BoolVar(&f.HTTPS, "https", false, "Use https with --server")
}

// ResolveConfigPath returns path, or the default config path when empty.
func ResolveConfigPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return config.DefaultPath()
}

// Resolve returns the profile selected by the flags. With --provider the
// config file is not read; otherwise the named or default profile is loaded
// and the remaining flags override it.
func (f *Flags) Resolve() (config.Profile, error) {
	var p config.Profile

	if f.Provider != "" {
		p = config.Profile{Provider: f.Provider}
	} else {
		path, err := ResolveConfigPath(f.ConfigPath)
		if err != nil {
			return p, err
		}

		c, err := config.Load(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return p, fmt.Errorf("no config at %s, pass --provider or create one", path)
			}
			return p, err
		}

		p, err = c.Profile(f.Profile)
		if err != nil {
			return p, err
		}
	}

	if f.Model != "" {
		p.Model = f.Model
	}
	if f.APIKeyEnv != "" {
		p.APIKey = ""
		p.APIKeyEnv = f.APIKeyEnv
	}
	if f.Server != "" {
		p.Server = f.Server
		p.HTTPS = f.HTTPS
	}

	if p.Model == "" {
		return p, errors.New("no model configured, pass --model")
	}
	return p, nil
}
