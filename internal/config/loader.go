package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".cmsfinger"

// xdgConfigFile is the configuration file name inside the XDG config directory.
const xdgConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .cmsfinger configuration file.
// Every field is optional; unset fields keep the built-in defaults.
type File struct {
	// Timeout is the per-attempt timeout in seconds.
	Timeout int `yaml:"timeout,omitempty"`

	// Retries is the total number of attempts per target.
	Retries *int `yaml:"retries,omitempty"`

	// Concurrency is the number of targets scanned at once.
	Concurrency int `yaml:"concurrency,omitempty"`

	// Mode is the output mode: streaming or batch.
	Mode string `yaml:"mode,omitempty"`

	// HTTPProxy is an http:// proxy URL.
	HTTPProxy string `yaml:"httpProxy,omitempty"`

	// SOCKS5Proxy is a socks5:// proxy URL.
	SOCKS5Proxy string `yaml:"socks5Proxy,omitempty"`

	// HTTPSFallback rescans unmatched http:// targets over https://.
	HTTPSFallback *bool `yaml:"httpsFallback,omitempty"`

	// RateLimit is the maximum number of requests per second.
	RateLimit float64 `yaml:"rateLimit,omitempty"`

	// Fingerprints are rule files. Relative paths are resolved against
	// the directory of the config file.
	Fingerprints []string `yaml:"fingerprints,omitempty"`

	// History enables the history database.
	History *bool `yaml:"history,omitempty"`

	// dir is the directory the file was loaded from.
	dir string
}

// LoadConfigFile loads the configuration from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	cf.dir = filepath.Dir(path)
	return &cf, nil
}

// Apply copies every value set in the file into c.
func (cf *File) Apply(c *Config) {
	if cf.Timeout > 0 {
		c.Timeout = time.Duration(cf.Timeout) * time.Second
	}
	if cf.Retries != nil {
		c.MaxRetries = *cf.Retries
	}
	if cf.Concurrency > 0 {
		c.Concurrency = cf.Concurrency
	}
	if cf.Mode != "" {
		c.OutputMode = cf.Mode
	}
	if cf.HTTPProxy != "" {
		c.HTTPProxy = cf.HTTPProxy
	}
	if cf.SOCKS5Proxy != "" {
		c.SOCKS5Proxy = cf.SOCKS5Proxy
	}
	if cf.HTTPSFallback != nil {
		c.HTTPSFallback = *cf.HTTPSFallback
	}
	if cf.RateLimit > 0 {
		c.RateLimit = cf.RateLimit
	}
	if cf.History != nil {
		c.SaveHistory = *cf.History
	}
	for _, p := range cf.Fingerprints {
		if !filepath.IsAbs(p) && cf.dir != "" {
			p = filepath.Join(cf.dir, p)
		}
		c.FingerprintFiles = append(c.FingerprintFiles, p)
	}
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .cmsfinger in the current directory
// 3. Look for .cmsfinger in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), xdgConfigFile))

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}
