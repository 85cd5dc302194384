package serverfx

import (
	"os"

	"github.com/joeydtaylor/steeze-effects/pkg/actions"
	"github.com/joeydtaylor/steeze-effects/pkg/registry"
)

type Config struct {
	Service         string // for logs only
	ManifestEnv     string
	DefaultManifest string
	ListenEnv       string
	TLSCertEnv      string
	TLSKeyEnv       string

	Hosts   *registry.Hosts
	Actions *actions.Registry
}

type Option func(*Config)

func WithService(s string) Option            { return func(c *Config) { c.Service = s } }
func WithManifestEnv(k string) Option        { return func(c *Config) { c.ManifestEnv = k } }
func WithDefaultManifest(path string) Option { return func(c *Config) { c.DefaultManifest = path } }
func WithListenEnv(k string) Option          { return func(c *Config) { c.ListenEnv = k } }
func WithTLSCertKeyEnv(cert, key string) Option {
	return func(c *Config) { c.TLSCertEnv, c.TLSKeyEnv = cert, key }
}

// WithHosts and WithActions replace the process-wide registries.
func WithHosts(h *registry.Hosts) Option     { return func(c *Config) { c.Hosts = h } }
func WithActions(r *actions.Registry) Option { return func(c *Config) { c.Actions = r } }

func defaultConfig() Config {
	return Config{
		Service:         "effects",
		ManifestEnv:     "EFFECTS_MANIFEST",
		DefaultManifest: "effects.toml",
		ListenEnv:       "SERVER_LISTEN_ADDRESS",
		TLSCertEnv:      "SSL_SERVER_CERTIFICATE",
		TLSKeyEnv:       "SSL_SERVER_KEY",
		Hosts:           registry.Default,
		Actions:         actions.Default,
	}
}

func (c Config) manifestPath() string { return envOr(c.ManifestEnv, c.DefaultManifest) }

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
