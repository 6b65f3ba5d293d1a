// internal/rewrite/cleaner.go
//
// Reverse cleaner: canonical URL → clean path.
//
// Context
// -------
// Every outbound link the platform renders passes through Clean.  Rules run
// in precedence order against a working path that starts as the canonical
// script path:
//
//	define_url  mapping.default_url        → mapping.custom_url
//	course_url  /course/view.php?id=N      → /course/{shortname}
//	            /course/edit.php?id=N      → /course/edit/{shortname}
//	            /course/index.php?categoryid=N
//	                                       → /course/category/{N}/{name}
//	user_url    /user/profile.php?id=N     → /user/profile/{username}
//
// The course and user rules claim their path prefixes: once one of them
// sees its prefix, later rules do not run even when it produced nothing.
// Every candidate passes the Guard before it replaces the working path, so
// a rejected candidate leaves whatever the previous rule produced.
//
// Notes
// -----
// • Parameters consumed by a rule (id, categoryid) stay on the output URL.
// • When the final path equals the input path Clean returns the caller's
//   pointer, not a copy.
// • Oxford commas, two spaces after periods.

package rewrite

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/cleanurl/internal/lookup"
	"github.com/yanizio/cleanurl/internal/metrics"
)

// coursePaths are the only /course scripts the course rule rewrites.
var coursePaths = map[string]struct{}{
	"/course/view.php":  {},
	"/course/edit.php":  {},
	"/course/index.php": {},
}

// reverseRule proposes a clean candidate for path.  claimed stops later
// rules from running.
type reverseRule interface {
	Category() Category
	Try(ctx context.Context, path string, params Params) (candidate string, claimed bool, err error)
}

// Cleaner evaluates reverse rules for one URL.
type Cleaner struct {
	settings Settings
	guard    Guard
	rules    []reverseRule
}

// NewCleaner builds a cleaner bound to settings, svc, and guard.  A nil
// guard allows every candidate.
func NewCleaner(settings Settings, svc lookup.Service, guard Guard) *Cleaner {
	if guard == nil {
		guard = AllowAll
	}
	return &Cleaner{
		settings: settings,
		guard:    guard,
		rules: []reverseRule{
			defineReverse{svc: svc},
			courseReverse{svc: svc},
			userReverse{svc: svc},
		},
	}
}

// Clean returns the clean form of u, or u itself when nothing changed.  On
// a lookup failure it returns u together with the error.
func (c *Cleaner) Clean(ctx context.Context, u *URL) (*URL, error) {
	if !c.settings.Enabled {
		return u, nil
	}

	path := u.Path
	for _, rule := range c.rules {
		if !c.settings.Has(rule.Category()) {
			continue
		}
		cand, claimed, err := rule.Try(ctx, path, u.Params)
		if err != nil {
			return u, err
		}
		if cand != "" && cand != path {
			if c.guard.Allowed(cand) {
				path = cand
			} else {
				metrics.CollisionsTotal.WithLabelValues(string(rule.Category())).Inc()
				zap.L().Debug("clean path collides with platform file",
					zap.String("category", string(rule.Category())),
					zap.String("candidate", cand))
			}
		}
		if claimed {
			break
		}
	}

	final := buildPath(path)
	if final == "" || final == u.Path {
		return u, nil
	}
	return NewURL(final, u.Params), nil
}

//
// Rules
//

type defineReverse struct{ svc lookup.Service }

func (defineReverse) Category() Category { return DefineURL }

func (d defineReverse) Try(ctx context.Context, path string, _ Params) (string, bool, error) {
	m, err := d.svc.MappingByDefaultURL(ctx, path)
	if err != nil {
		cand, _, err := notFound(err)
		return cand, false, err
	}
	return m.CustomURL, false, nil
}

type courseReverse struct{ svc lookup.Service }

func (courseReverse) Category() Category { return CourseURL }

func (c courseReverse) Try(ctx context.Context, path string, params Params) (string, bool, error) {
	if !strings.HasPrefix(path, "/course") {
		return "", false, nil
	}
	if _, ok := coursePaths[path]; !ok {
		return "", true, nil
	}

	base := stripScript(path, "/view.php")

	if raw, ok := paramID(params, "id"); ok {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return "", true, nil
		}
		course, err := c.svc.CourseByID(ctx, id)
		if err != nil {
			cand, _, err := notFound(err)
			return cand, true, err
		}
		return base + "/" + url.QueryEscape(course.ShortName), true, nil
	}

	if raw, ok := paramID(params, "categoryid"); ok {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return "", true, nil
		}
		cat, err := c.svc.CategoryByID(ctx, id)
		if err != nil {
			cand, _, err := notFound(err)
			return cand, true, err
		}
		return base + "/category/" + strconv.FormatInt(cat.ID, 10) + "/" +
			url.QueryEscape(asciiLower(cat.Name)), true, nil
	}
	return "", true, nil
}

type userReverse struct{ svc lookup.Service }

func (userReverse) Category() Category { return UserURL }

func (r userReverse) Try(ctx context.Context, path string, params Params) (string, bool, error) {
	if !strings.HasPrefix(path, "/user/profile.php") {
		return "", false, nil
	}
	raw, ok := paramID(params, "id")
	if !ok {
		return "", true, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return "", true, nil
	}
	user, err := r.svc.UserByID(ctx, id)
	if err != nil {
		cand, _, err := notFound(err)
		return cand, true, err
	}
	return stripScript(path, "") + "/" + url.QueryEscape(asciiLower(user.Username)), true, nil
}

// paramID returns a non-empty, non-zero id parameter.  “0” counts as
// absent, as it does for the platform's own scripts.
func paramID(params Params, key string) (string, bool) {
	v, ok := params.Get(key)
	if !ok || v == "" || v == "0" {
		return "", false
	}
	return v, true
}
