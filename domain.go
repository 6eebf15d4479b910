package web2pdf

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/alnah/go-web2pdf/internal/registry"
)

// DomainOf returns the normalized domain of an absolute http or https URL.
func DomainOf(rawURL string) (string, error) {
	return domainOf(rawURL)
}

func domainOf(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", fmt.Errorf("%w: %q: scheme must be http or https", ErrInvalidURL, rawURL)
	}

	domain, err := registry.Normalize(u.Host)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	return domain, nil
}
