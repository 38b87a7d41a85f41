package ratelimit

import (
	"net/netip"
	"strings"

	"luigi/internal/luigierrors"
)

// IPMode selects the IP gate's policy (spec §4.10).
type IPMode string

const (
	IPModeOff       IPMode = "off"
	IPModeLocalOnly IPMode = "local-only"
	IPModeAllowlist IPMode = "allowlist"
)

// localRanges are the loopback and private-use ranges local-only mode allows.
var localRanges = []string{
	"127.0.0.0/8",
	"::1/128",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
}

// IPGate decides whether a client address may reach the server at all.
type IPGate struct {
	mode  IPMode
	allow []netip.Prefix
}

// NewIPGate builds a gate for mode. allowed is a list of CIDRs or bare
// addresses, used only when mode is IPModeAllowlist (bare addresses are
// treated as /32 or /128).
func NewIPGate(mode IPMode, allowed []string) (*IPGate, error) {
	g := &IPGate{mode: mode}

	var specs []string
	switch mode {
	case IPModeLocalOnly:
		specs = localRanges
	case IPModeAllowlist:
		specs = allowed
	case IPModeOff, "":
		return g, nil
	default:
		return nil, luigierrors.Validation("unknown IP_MODE value")
	}

	for _, spec := range specs {
		prefix, err := parsePrefix(spec)
		if err != nil {
			return nil, luigierrors.Validation("invalid address/CIDR in ALLOWED_IPS: " + spec)
		}
		g.allow = append(g.allow, prefix)
	}
	return g, nil
}

func parsePrefix(spec string) (netip.Prefix, error) {
	spec = strings.TrimSpace(spec)
	if strings.Contains(spec, "/") {
		return netip.ParsePrefix(spec)
	}
	addr, err := netip.ParseAddr(spec)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// Allowed reports whether addr may proceed.
func (g *IPGate) Allowed(addr netip.Addr) bool {
	if g.mode == IPModeOff || g.mode == "" {
		return true
	}
	for _, prefix := range g.allow {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
