package invite

import (
	"fmt"
	"net/url"
)

// QueryParam carries the code in shareable invite links.
const QueryParam = "invite"

// Link builds the shareable invite URL for code on top of baseURL.
func Link(baseURL, code string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse invite base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invite base url %q must be absolute", baseURL)
	}
	q := u.Query()
	q.Set(QueryParam, code)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// FromURL extracts a normalized invite code from a landing URL and returns
// the URL with the invite parameter removed. ok is false when the URL carries
// no invite parameter.
func FromURL(raw string) (code, cleaned string, ok bool, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", false, fmt.Errorf("parse invite url: %w", err)
	}

	q := u.Query()
	value := q.Get(QueryParam)
	if value == "" {
		return "", raw, false, nil
	}

	code, err = Normalize(value)
	if err != nil {
		return "", "", false, err
	}

	q.Del(QueryParam)
	u.RawQuery = q.Encode()
	return code, u.String(), true, nil
}
