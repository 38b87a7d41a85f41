package httpapi

import "crypto/tls"

// tlsConfig returns the server's TLS configuration: minimum version 1.2
// and a server-preferred AEAD cipher suite list, per spec §4.11's "secure
// TLS defaults" requirement. TLS 1.3 ignores CipherSuites entirely and
// negotiates its own AEAD-only suite set, so this only constrains 1.2
// connections.
func tlsConfig() *tls.Config {
	return &tls.Config{
		MinVersion:               tls.VersionTLS12,
		PreferServerCipherSuites: true,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
		},
	}
}
