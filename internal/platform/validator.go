package platform

import (
	"net/url"
	"regexp"
	"strings"
)

// User-facing validation messages.
const (
	MsgEmptyURL       = "Please enter a URL"
	MsgInvalidURL     = "Please enter a valid URL"
	MsgGeneralWarning = "This will attempt to extract content from any website. " +
		"Some sites do not allow this and it may not work as expected."
	MsgTestingWarning = "This feature is in testing phase and might not work correctly"
)

// Result is the verdict for one (url, platform) pair. Error is only set when
// Valid is false; Warning is advisory and may accompany either outcome.
type Result struct {
	Valid   bool   `json:"is_valid"`
	Error   string `json:"error,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// MismatchMessage is the error returned when a URL matches none of a platform's patterns.
func MismatchMessage(key string) string {
	return "URL does not match " + key + " platform format"
}

// hostnamePattern accepts DNS names, IPv4 literals and internationalized labels.
var hostnamePattern = regexp.MustCompile(`^[\p{L}\p{N}_-]+(\.[\p{L}\p{N}_-]+)*\.?$`)

// Normalize trims raw and prepends https:// when no http(s) scheme is present.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "https://" + s
	}
	return s
}

// Parse normalizes raw and parses it as an absolute http(s) URL.
func Parse(raw string) (*url.URL, bool) {
	u, err := url.Parse(Normalize(raw))
	if err != nil || u.Host == "" {
		return nil, false
	}

	host := u.Hostname()
	if strings.HasPrefix(host, "[") || strings.Contains(host, ":") {
		// IPv6 literal; url.Parse already validated it.
		return u, true
	}
	if !hostnamePattern.MatchString(host) {
		return nil, false
	}
	return u, true
}

// Validate classifies raw against the platform identified by key. It is pure
// and deterministic.
func Validate(raw, key string) Result {
	if strings.TrimSpace(raw) == "" {
		return Result{Error: MsgEmptyURL}
	}

	u, ok := Parse(raw)
	if !ok {
		return Result{Error: MsgInvalidURL}
	}

	r, known := Lookup(key)
	switch {
	case known && r.Universal():
		return Result{Valid: true, Warning: MsgGeneralWarning}
	case known && r.Maturity == Testing:
		return Result{Warning: MsgTestingWarning}
	case !known:
		return Result{Valid: true}
	}

	hostname := strings.ToLower(u.Hostname())
	if !r.Matches(hostname, href(u)) {
		return Result{Error: MismatchMessage(key)}
	}
	return Result{Valid: true}
}

// href renders u the way a browser serializes it: lowercased, with an
// empty path shown as "/".
func href(u *url.URL) string {
	c := *u
	if c.Path == "" && c.RawPath == "" && c.Opaque == "" {
		c.Path = "/"
	}
	return strings.ToLower(c.String())
}
