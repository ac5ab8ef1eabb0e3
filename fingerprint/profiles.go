package fingerprint

import (
	"fmt"
	"sort"
	"strings"
)

// Profile bundles the fingerprint surfaces of one browser build.
type Profile struct {
	// Name is the canonical profile key, e.g. "chrome-116".
	Name string

	// Target is the native engine's impersonation target for this
	// browser, e.g. "chrome116".
	Target string

	// JA3 is the TLS ClientHello fingerprint string.
	JA3 string

	// Akamai is the HTTP/2 fingerprint string
	// (settings|window-update|priority|pseudo-header-order).
	Akamai string

	// UserAgent is the matching User-Agent header value.
	UserAgent string

	// HTTPVersion is the preferred ALPN protocol ("h2" or "http/1.1").
	HTTPVersion string
}

var profiles = map[string]Profile{
	"chrome-116": {
		Name:        "chrome-116",
		Target:      "chrome116",
		JA3:         "771,4865-4866-4867-49195-49199-49196-49200-52393-52392-49171-49172-156-157-47-53,45-27-23-10-13-35-5-16-51-0-18-43-11-65281-21,29-23-24,0",
		Akamai:      "1:65536;2:0;4:6291456;6:262144|15663105|0|m,a,s,p",
		UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/116.0.0.0 Safari/537.36",
		HTTPVersion: "h2",
	},
	"chrome-120": {
		Name:        "chrome-120",
		Target:      "chrome120",
		JA3:         "771,4865-4866-4867-49195-49199-49196-49200-52393-52392-49171-49172-156-157-47-53,45-27-23-10-13-35-5-16-51-0-18-43-11-65281-17513,29-23-24,0",
		Akamai:      "1:65536;2:0;4:6291456;6:262144|15663105|0|m,a,s,p",
		UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		HTTPVersion: "h2",
	},
	"firefox-117": {
		Name:        "firefox-117",
		Target:      "ff117",
		JA3:         "771,4865-4867-4866-49195-49199-52393-52392-49196-49200-49162-49161-49171-49172-156-157-47-53,0-23-65281-10-11-16-5-34-51-43-13-45-28,29-23-24-25-256-257,0",
		Akamai:      "1:65536;4:131072;5:16384|12517377|3:0:0:201,5:0:0:101,7:0:0:1,9:0:7:1,11:0:3:1,13:0:0:241|m,p,a,s",
		UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/117.0",
		HTTPVersion: "h2",
	},
	"safari-17": {
		Name:        "safari-17",
		Target:      "safari17_0",
		JA3:         "771,4865-4866-4867-49196-49195-52393-49200-49199-52392-49162-49161-49172-49171-157-156-53-47-49160-49170-10,0-23-65281-10-11-16-5-13-18-51-45-43-27-21,29-23-24-25,0",
		Akamai:      "4:4194304;3:100|10485760|0|m,s,p,a",
		UserAgent:   "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
		HTTPVersion: "h2",
	},
	"edge-116": {
		Name:        "edge-116",
		Target:      "edge101",
		JA3:         "771,4865-4866-4867-49195-49199-49196-49200-52393-52392-49171-49172-156-157-47-53,45-27-23-10-13-35-5-16-51-0-18-43-11-65281-21,29-23-24,0",
		Akamai:      "1:65536;3:1000;4:6291456;6:262144|15663105|0|m,a,s,p",
		UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/116.0.0.0 Safari/537.36 Edg/116.0.1938.69",
		HTTPVersion: "h2",
	},
}

// aliases map friendly names to canonical profile keys.
var aliases = map[string]string{
	"chrome":  "chrome-120",
	"firefox": "firefox-117",
	"safari":  "safari-17",
	"edge":    "edge-116",
}

// DefaultProfile is used when a caller does not name one.
const DefaultProfile = "chrome-120"

// Lookup resolves a profile by canonical name or alias,
// case-insensitively.
func Lookup(name string) (Profile, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = DefaultProfile
	}
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}

	p, ok := profiles[key]
	if !ok {
		return Profile{}, fmt.Errorf("unknown fingerprint profile %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return p, nil
}

// Names lists the canonical profile names, sorted.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
