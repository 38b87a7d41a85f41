package config

import "os"

// Check is one named pass/fail line of the pre-start precheck (spec §4.12:
// "checks... TLS materials, writability of the log directory, presence of
// the required credentials, and readability of the registry root").
type Check struct {
	Name string
	OK   bool
	Note string
}

// Precheck runs every pre-start check against s and returns them in a
// fixed, stable order regardless of which ones fail.
func (s Settings) Precheck() []Check {
	checks := []Check{
		checkCredentials(s),
		checkRegistryReadable(s),
		checkLogsWritable(s),
	}
	if s.UseHTTPS {
		checks = append(checks, checkTLSMaterial(s))
	}
	return checks
}

// AllOK reports whether every check in checks passed.
func AllOK(checks []Check) bool {
	for _, c := range checks {
		if !c.OK {
			return false
		}
	}
	return true
}

func checkCredentials(s Settings) Check {
	if s.AuthUsername == "" || s.AuthPassword == "" {
		return Check{Name: "credentials", OK: false, Note: "AUTH_USERNAME and AUTH_PASSWORD are required"}
	}
	return Check{Name: "credentials", OK: true}
}

func checkRegistryReadable(s Settings) Check {
	info, err := os.Stat(s.RegistryPath)
	if err != nil {
		return Check{Name: "registry root", OK: false, Note: err.Error()}
	}
	if !info.IsDir() {
		return Check{Name: "registry root", OK: false, Note: s.RegistryPath + " is not a directory"}
	}
	f, err := os.Open(s.RegistryPath)
	if err != nil {
		return Check{Name: "registry root", OK: false, Note: err.Error()}
	}
	defer f.Close()
	return Check{Name: "registry root", OK: true}
}

func checkLogsWritable(s Settings) Check {
	if err := os.MkdirAll(s.LogsPath, 0o755); err != nil {
		return Check{Name: "logs directory", OK: false, Note: err.Error()}
	}
	probe := s.LogsPath + "/.luigi-precheck"
	if err := os.WriteFile(probe, []byte{}, 0o644); err != nil {
		return Check{Name: "logs directory", OK: false, Note: err.Error()}
	}
	_ = os.Remove(probe)
	return Check{Name: "logs directory", OK: true}
}

func checkTLSMaterial(s Settings) Check {
	if s.TLSCertPath == "" || s.TLSKeyPath == "" {
		return Check{Name: "TLS material", OK: false, Note: "TLS_CERT_PATH and TLS_KEY_PATH are required when USE_HTTPS is enabled"}
	}
	if _, err := os.Stat(s.TLSCertPath); err != nil {
		return Check{Name: "TLS material", OK: false, Note: err.Error()}
	}
	if _, err := os.Stat(s.TLSKeyPath); err != nil {
		return Check{Name: "TLS material", OK: false, Note: err.Error()}
	}
	return Check{Name: "TLS material", OK: true}
}
