package ratelimit

import (
	"strings"
)

// MatchEndpoint returns the configuration for a request, or nil when the default limit applies.
// Config paths ending in "/" match by prefix. Health checks and CORS preflights are unlimited.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if (path == "/health" && method == "GET") || method == "OPTIONS" {
		return &EndpointConfig{}
	}

	// Try exact match first
	for i := range configs {
		config := &configs[i]
		if config.Path == path && config.Method == method {
			return config
		}
	}

	// Try prefix match (for paths ending with "/")
	for i := range configs {
		config := &configs[i]
		if config.Method == method && strings.HasSuffix(config.Path, "/") {
			if strings.HasPrefix(path, config.Path) {
				return config
			}
		}
	}

	return nil
}
