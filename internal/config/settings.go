// Package config loads runtime settings from a `KEY=VALUE` environment
// file (spec §4.12), validates them, and runs the pre-start precheck.
package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// Settings is the parsed, validated runtime configuration (spec §4.12's table).
type Settings struct {
	Port int
	Host string

	UseHTTPS    bool
	TLSCertPath string
	TLSKeyPath  string

	AuthUsername string
	AuthPassword string

	AllowedIPs []string
	IPMode     string

	ModulesPath  string
	ConfigPath   string
	RegistryPath string
	LogsPath     string

	LogFile        string
	LogLevel       string
	LogMaxBytes    int64
	LogBackupCount int

	CORSOrigin string
}

func defaults() Settings {
	return Settings{
		Port:           8443,
		Host:           "0.0.0.0",
		IPMode:         "off",
		ModulesPath:    "/opt/luigi/modules",
		ConfigPath:     "/etc/luigi",
		RegistryPath:   "/etc/luigi/registry",
		LogsPath:       "/var/log/luigi",
		LogLevel:       "info",
		LogMaxBytes:    10 * 1024 * 1024,
		LogBackupCount: 10,
	}
}

// candidatePaths is the search order for the env file: a deployment-
// specific path, then a local fallback (spec §4.12).
func candidatePaths(explicit string) []string {
	if explicit != "" {
		return []string{explicit}
	}
	return []string{"/etc/luigi/luigi.env", ".env"}
}

// Load reads the first existing file from candidatePaths(path) and
// overlays its KEY=VALUE pairs on top of Settings' defaults. A completely
// missing file is not an error — defaults plus Validate's required-field
// checks surface the real problem (e.g. missing credentials).
func Load(path string) (Settings, error) {
	settings := defaults()

	for _, candidate := range candidatePaths(path) {
		data, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		applyEnvFile(&settings, string(data))
		break
	}

	return settings, nil
}

func applyEnvFile(s *Settings, content string) {
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		applyKey(s, strings.TrimSpace(key), strings.TrimSpace(value))
	}
}

func applyKey(s *Settings, key, value string) {
	switch key {
	case "PORT":
		if n, err := strconv.Atoi(value); err == nil {
			s.Port = n
		}
	case "HOST":
		s.Host = value
	case "USE_HTTPS":
		s.UseHTTPS = parseBool(value)
	case "TLS_CERT_PATH":
		s.TLSCertPath = value
	case "TLS_KEY_PATH":
		s.TLSKeyPath = value
	case "AUTH_USERNAME":
		s.AuthUsername = value
	case "AUTH_PASSWORD":
		s.AuthPassword = value
	case "ALLOWED_IPS":
		s.AllowedIPs = splitCSV(value)
	case "IP_MODE":
		s.IPMode = value
	case "MODULES_PATH":
		s.ModulesPath = value
	case "CONFIG_PATH":
		s.ConfigPath = value
	case "REGISTRY_PATH":
		s.RegistryPath = value
	case "LOGS_PATH":
		s.LogsPath = value
	case "LOG_FILE":
		s.LogFile = value
	case "LOG_LEVEL":
		s.LogLevel = value
	case "LOG_MAX_BYTES":
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			s.LogMaxBytes = n
		}
	case "LOG_BACKUP_COUNT":
		if n, err := strconv.Atoi(value); err == nil {
			s.LogBackupCount = n
		}
	case "CORS_ORIGIN":
		s.CORSOrigin = value
	}
}

func parseBool(value string) bool {
	switch strings.ToLower(value) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
