package spliit

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidGroupURL is returned when a group URL has no scheme, host or
// group id.
var ErrInvalidGroupURL = errors.New("invalid group URL")

// ParseGroupURL splits a group link such as
// https://spliit.app/groups/abc123/expenses into the server URL
// (https://spliit.app) and the group id (abc123). The id is the segment
// following "groups", or the last path segment when there is none.
func ParseGroupURL(raw string) (server, groupID string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", fmt.Errorf("%w: empty", ErrInvalidGroupURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidGroupURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", "", fmt.Errorf("%w: %q has no scheme or host", ErrInvalidGroupURL, raw)
	}

	segments := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	for i, s := range segments {
		if s == "groups" && i+1 < len(segments) {
			groupID = segments[i+1]
			break
		}
	}
	if groupID == "" && len(segments) > 0 {
		groupID = segments[len(segments)-1]
	}
	if groupID == "" || groupID == "groups" {
		return "", "", fmt.Errorf("%w: %q has no group id", ErrInvalidGroupURL, raw)
	}
	return u.Scheme + "://" + u.Host, groupID, nil
}
