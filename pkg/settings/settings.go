// Package settings manages persistent operator defaults for filterupdate.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Built-in defaults, used when neither a flag nor a setting is given.
const (
	DefaultServer        = "rr.ntt.net"
	DefaultTool          = "bgpq4"
	DefaultNetconfPort   = 830
	DefaultCommitComment = "Prefix filter update"
	DefaultCacheTTL      = time.Hour
)

// Settings holds persistent user preferences
type Settings struct {
	// IRRServer is the registry used when -s is not specified
	IRRServer string `yaml:"irr_server,omitempty"`

	// Tool is the prefix-list generator binary (bgpq4 or bgpq3)
	Tool string `yaml:"tool,omitempty"`

	DeviceUser  string `yaml:"device_user,omitempty"`
	NetconfPort int    `yaml:"netconf_port,omitempty"`
	KnownHosts  string `yaml:"known_hosts,omitempty"`

	// AuditLog is the JSON-lines audit file
	AuditLog string `yaml:"audit_log,omitempty"`

	// RedisAddr enables the prefix cache when set
	RedisAddr string `yaml:"redis_addr,omitempty"`
	CacheTTL  string `yaml:"cache_ttl,omitempty"`

	CommitComment string `yaml:"commit_comment,omitempty"`
}

// DefaultSettingsPath returns the default path for the settings file
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "filterupdate_settings.yaml"
	}
	return filepath.Join(home, ".filterupdate", "settings.yaml")
}

// DefaultAuditLogPath returns the audit file used when audit_log is unset.
func DefaultAuditLogPath() string {
	return filepath.Join(filepath.Dir(DefaultSettingsPath()), "audit.log")
}

// Load reads settings from the default location
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty settings if file doesn't exist
			return s, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return s, nil
}

// Save writes settings to the default location
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path
func (s *Settings) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Clear resets all settings to defaults
func (s *Settings) Clear() {
	*s = Settings{}
}

type field struct {
	get func(*Settings) string
	set func(*Settings, string) error
}

func stringField(p func(*Settings) *string) field {
	return field{
		get: func(s *Settings) string { return *p(s) },
		set: func(s *Settings, v string) error { *p(s) = v; return nil },
	}
}

var fields = map[string]field{
	"irr_server":     stringField(func(s *Settings) *string { return &s.IRRServer }),
	"device_user":    stringField(func(s *Settings) *string { return &s.DeviceUser }),
	"known_hosts":    stringField(func(s *Settings) *string { return &s.KnownHosts }),
	"audit_log":      stringField(func(s *Settings) *string { return &s.AuditLog }),
	"redis_addr":     stringField(func(s *Settings) *string { return &s.RedisAddr }),
	"commit_comment": stringField(func(s *Settings) *string { return &s.CommitComment }),
	"tool": {
		get: func(s *Settings) string { return s.Tool },
		set: func(s *Settings, v string) error {
			if v != "" && v != "bgpq3" && v != "bgpq4" {
				return fmt.Errorf("tool must be bgpq3 or bgpq4, got %q", v)
			}
			s.Tool = v
			return nil
		},
	},
	"netconf_port": {
		get: func(s *Settings) string {
			if s.NetconfPort == 0 {
				return ""
			}
			return strconv.Itoa(s.NetconfPort)
		},
		set: func(s *Settings, v string) error {
			if v == "" {
				s.NetconfPort = 0
				return nil
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 65535 {
				return fmt.Errorf("netconf_port must be 1-65535, got %q", v)
			}
			s.NetconfPort = n
			return nil
		},
	},
	"cache_ttl": {
		get: func(s *Settings) string { return s.CacheTTL },
		set: func(s *Settings, v string) error {
			if v != "" {
				if _, err := time.ParseDuration(v); err != nil {
					return fmt.Errorf("cache_ttl: %w", err)
				}
			}
			s.CacheTTL = v
			return nil
		},
	},
}

// Keys returns the setting names in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of a named setting ("" when unset).
func (s *Settings) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("unknown setting: %s", key)
	}
	return f.get(s), nil
}

// Set validates and stores a named setting. An empty value unsets it.
func (s *Settings) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("unknown setting: %s", key)
	}
	return f.set(s, value)
}

// GetIRRServer returns the registry server (with fallback)
func (s *Settings) GetIRRServer() string {
	if s.IRRServer != "" {
		return s.IRRServer
	}
	return DefaultServer
}

// GetTool returns the prefix-list tool (with fallback)
func (s *Settings) GetTool() string {
	if s.Tool != "" {
		return s.Tool
	}
	return DefaultTool
}

// GetNetconfPort returns the NETCONF port (with fallback)
func (s *Settings) GetNetconfPort() int {
	if s.NetconfPort != 0 {
		return s.NetconfPort
	}
	return DefaultNetconfPort
}

// GetCommitComment returns the commit log message (with fallback)
func (s *Settings) GetCommitComment() string {
	if s.CommitComment != "" {
		return s.CommitComment
	}
	return DefaultCommitComment
}

// GetAuditLog returns the audit file path (with fallback)
func (s *Settings) GetAuditLog() string {
	if s.AuditLog != "" {
		return s.AuditLog
	}
	return DefaultAuditLogPath()
}

// GetCacheTTL returns the cache TTL; an unparsable value falls back to the
// default.
func (s *Settings) GetCacheTTL() time.Duration {
	if d, err := time.ParseDuration(s.CacheTTL); err == nil && d > 0 {
		return d
	}
	return DefaultCacheTTL
}
