package proxy

import "github.com/papercomputeco/lmstream/pkg/config"

// Config is the gateway server configuration.
type Config struct {
	// Address to listen on (e.g., ":8080")
	ListenAddr string

	// Profiles are the provider profiles requests can name. They can be
	// replaced at runtime with Proxy.SetProfiles.
	Profiles *config.Config
}
