// internal/rewrite/settings.go
//
// Feature switch and mapping-category enablement.
//
// Settings are read once per Resolve or Clean call from a SettingsProvider
// and then passed by value into the resolver or cleaner.  Nothing in the
// rule code reads configuration on its own.

package rewrite

import (
	"context"
	"strings"
)

// Category names one rule family.  Values match the platform's stored
// setting strings.
type Category string

const (
	DefineURL Category = "define_url"
	CourseURL Category = "course_url"
	UserURL   Category = "user_url"
)

// Categories lists every category in precedence order.
var Categories = []Category{DefineURL, CourseURL, UserURL}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case DefineURL, CourseURL, UserURL:
		return true
	}
	return false
}

// ParseCategories reads the platform's comma-separated category list.
// Unknown names and blanks are dropped, duplicates collapse.
func ParseCategories(raw string) []Category {
	var out []Category
	seen := make(map[Category]struct{}, len(Categories))
	for _, part := range strings.Split(raw, ",") {
		c := Category(strings.TrimSpace(part))
		if !c.Valid() {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Settings is the per-request view of the plugin configuration.
type Settings struct {
	Enabled    bool
	Categories []Category
}

// Has reports whether category c is enabled.  The enumeration order in
// Categories never affects precedence.
func (s Settings) Has(c Category) bool {
	for _, got := range s.Categories {
		if got == c {
			return true
		}
	}
	return false
}

// SettingsProvider sources Settings.  Implementations must be safe for
// concurrent use.
type SettingsProvider interface {
	Settings(ctx context.Context) (Settings, error)
}

// StaticSettings is a SettingsProvider that always returns itself.
type StaticSettings Settings

// Settings implements SettingsProvider.
func (s StaticSettings) Settings(context.Context) (Settings, error) {
	return Settings(s), nil
}
