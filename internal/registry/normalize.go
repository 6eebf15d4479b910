package registry

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// Normalize returns the canonical domain for raw, which may be a full URL
// ("https://Example.com:8443/login") or a bare host ("example.com").
// Hosts are lower-cased and converted to their IDNA ASCII form; a port is
// kept.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidDomain)
	}

	if !strings.Contains(raw, "://") {
		raw = "//" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDomain, err)
	}

	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("%w: no host in %q", ErrInvalidDomain, raw)
	}

	if ip := net.ParseIP(host); ip == nil {
		host, err = idna.Lookup.ToASCII(strings.ToLower(host))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidDomain, err)
		}
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	if port := u.Port(); port != "" {
		if strings.HasPrefix(host, "[") {
			return host + ":" + port, nil
		}
		return net.JoinHostPort(host, port), nil
	}
	return host, nil
}
