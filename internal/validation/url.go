// Package validation checks externally supplied URLs before they end up in
// customer emails, webhook registrations or outbound carrier calls.
package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// URLError reports which setting carries a bad URL.
type URLError struct {
	Field   string
	Message string
	URL     string
}

func (e URLError) Error() string {
	return fmt.Sprintf("%s: %s (url: %s)", e.Field, e.Message, e.URL)
}

// URL accepts an empty value or an absolute http(s) URL. requireHTTPS
// rejects plain http.
func URL(raw, field string, requireHTTPS bool) error {
	if raw == "" {
		return nil
	}
	_, err := parse(raw, field, requireHTTPS)
	return err
}

// Origin is URL plus the constraint that nothing follows the host, so the
// value can be joined with route paths.
func Origin(raw, field string, requireHTTPS bool) error {
	if raw == "" {
		return nil
	}
	u, err := parse(raw, field, requireHTTPS)
	if err != nil {
		return err
	}
	switch {
	case u.Path != "" && u.Path != "/":
		return URLError{Field: field, Message: "must not contain a path", URL: raw}
	case u.RawQuery != "":
		return URLError{Field: field, Message: "must not contain query parameters", URL: raw}
	case u.Fragment != "":
		return URLError{Field: field, Message: "must not contain a fragment", URL: raw}
	}
	return nil
}

func parse(raw, field string, requireHTTPS bool) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, URLError{Field: field, Message: "invalid URL format", URL: raw}
	}
	if u.Scheme == "" {
		return nil, URLError{Field: field, Message: "must include a scheme (http:// or https://)", URL: raw}
	}
	if u.Host == "" {
		return nil, URLError{Field: field, Message: "must include a host", URL: raw}
	}
	scheme := strings.ToLower(u.Scheme)
	if requireHTTPS && scheme != "https" {
		return nil, URLError{Field: field, Message: "must use HTTPS in production", URL: raw}
	}
	if scheme != "http" && scheme != "https" {
		return nil, URLError{Field: field, Message: "scheme must be http or https", URL: raw}
	}
	return u, nil
}
