// internal/rewrite/url.go
//
// URL value object and ordered query parameters.
//
// Context
// -------
// The rewriter works on two halves of a platform URL: the script path
// (“/course/view.php”) and its query parameters.  Parameter order is kept
// as first seen so a rewritten link renders its query string the same way
// the caller built it.  Values are single strings; a repeated key keeps its
// last value, matching how the platform reads its request superglobal.
//
// Notes
// -----
// • A *URL is treated as immutable once built.  The cleaner relies on this
//   when it hands the caller's pointer back untouched.
// • Oxford commas, two spaces after periods.

package rewrite

import (
	"fmt"
	"net/url"
	"strings"
)

//
// Params
//

// Params is an ordered string → string mapping.  The zero value is empty and
// ready to use.
type Params struct {
	keys []string
	vals map[string]string
}

// NewParams builds Params from alternating key, value arguments.  A trailing
// key without a value is ignored.
func NewParams(kv ...string) Params {
	var p Params
	for i := 0; i+1 < len(kv); i += 2 {
		p.Set(kv[i], kv[i+1])
	}
	return p
}

// ParseParams decodes a raw query string, keeping first-seen key order.
func ParseParams(raw string) (Params, error) {
	var p Params
	for raw != "" {
		var pair string
		pair, raw, _ = strings.Cut(raw, "&")
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return Params{}, fmt.Errorf("query key %q: %w", k, err)
		}
		val, err := url.QueryUnescape(v)
		if err != nil {
			return Params{}, fmt.Errorf("query value for %q: %w", key, err)
		}
		p.Set(key, val)
	}
	return p, nil
}

// Get returns the value for key and whether it is present.
func (p Params) Get(key string) (string, bool) {
	v, ok := p.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	_, ok := p.vals[key]
	return ok
}

// Set stores value under key, appending key when new.
func (p *Params) Set(key, value string) {
	if p.vals == nil {
		p.vals = make(map[string]string)
	}
	if _, ok := p.vals[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.vals[key] = value
}

// Keys returns keys in insertion order.
func (p Params) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len reports the number of keys.
func (p Params) Len() int { return len(p.keys) }

// Clone returns an independent copy.
func (p Params) Clone() Params {
	var c Params
	for _, k := range p.keys {
		c.Set(k, p.vals[k])
	}
	return c
}

// Encode renders the params as a query string in insertion order.
func (p Params) Encode() string {
	if len(p.keys) == 0 {
		return ""
	}
	var b strings.Builder
	for i, k := range p.keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.vals[k]))
	}
	return b.String()
}

//
// URL
//

// URL is a platform-relative address: script or clean path plus params.
type URL struct {
	Path   string
	Params Params
}

// NewURL returns a URL with a private copy of params.
func NewURL(path string, params Params) *URL {
	return &URL{Path: path, Params: params.Clone()}
}

// ParseURL splits a raw platform URL (“/course/view.php?id=4”) into path and
// ordered params.  The path keeps its escaped form, as sent by the client.
// Scheme and host, when present, are discarded because the rewriter only
// reasons about site-relative paths.
func ParseURL(raw string) (*URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", raw, err)
	}
	params, err := ParseParams(u.RawQuery)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", raw, err)
	}
	return &URL{Path: u.EscapedPath(), Params: params}, nil
}

// String renders path and query.
func (u *URL) String() string {
	if q := u.Params.Encode(); q != "" {
		return u.Path + "?" + q
	}
	return u.Path
}
