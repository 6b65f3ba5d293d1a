// internal/rewrite/resolver.go
//
// Forward resolver: clean path → canonical URL.
//
// Context
// -------
// The web server hands every unknown path to the platform bootstrap, which
// asks the resolver whether the path is a clean URL.  Rules run in a fixed
// order regardless of how the categories were enumerated in configuration:
//
//	define_url  /about               → mapping.default_url
//	course_url  /course/{short}      → /course/view.php?id={id}
//	            /course/edit/{short} → /course/edit.php?id={id}
//	            /course/x/{id}/x     → /course/index.php?categoryid={id}
//	user_url    /user/x/{username}   → /user/profile.php?id={id}
//
// The first rule that produces a canonical URL wins.  Its own query
// parameters are then merged into the request's parameters; a key present
// on both sides is a ConflictError and the request must stop.
//
// Notes
// -----
// • The resolver never mutates the Request.  Merged parameters come back in
//   Result for the host to apply.
// • Oxford commas, two spaces after periods.

package rewrite

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/yanizio/cleanurl/internal/lookup"
)

// Request is one inbound request as the host sees it.
type Request struct {
	Path   string
	Params Params
}

// ParseRequest splits a raw request URI into a Request.
func ParseRequest(requestURI string) (Request, error) {
	u, err := ParseURL(requestURI)
	if err != nil {
		return Request{}, err
	}
	return Request{Path: u.Path, Params: u.Params}, nil
}

// Result is a successful resolution.
type Result struct {
	URL      *URL     // canonical URL with its own params
	Params   Params   // request params plus injected canonical params
	Category Category // rule that matched
}

// inbound is the pre-split view of a request path shared by all rules.
type inbound struct {
	path     string
	segments []string
	unique   string // final segment, percent-decoded
}

func newInbound(path string) inbound {
	segs := splitSegments(path)
	last := segs[len(segs)-1]
	unique, err := url.QueryUnescape(last)
	if err != nil {
		unique = last
	}
	return inbound{path: path, segments: segs, unique: unique}
}

// forwardRule maps an inbound path to a canonical URL string.
type forwardRule interface {
	Category() Category
	Try(ctx context.Context, in inbound) (canonical string, ok bool, err error)
}

// Resolver evaluates forward rules for one request.
type Resolver struct {
	settings Settings
	rules    []forwardRule
}

// NewResolver builds a resolver bound to settings and svc.
func NewResolver(settings Settings, svc lookup.Service) *Resolver {
	return &Resolver{
		settings: settings,
		rules: []forwardRule{
			defineForward{svc: svc},
			courseForward{svc: svc},
			userForward{svc: svc},
		},
	}
}

// ResolveURI parses requestURI and resolves it.
func (r *Resolver) ResolveURI(ctx context.Context, requestURI string) (*Result, bool, error) {
	req, err := ParseRequest(requestURI)
	if err != nil {
		return nil, false, err
	}
	return r.Resolve(ctx, req)
}

// Resolve returns ok == false when the path is not a clean URL, or the
// feature is disabled.  A parameter collision returns *ConflictError.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Result, bool, error) {
	if !r.settings.Enabled {
		return nil, false, nil
	}

	in := newInbound(req.Path)
	for _, rule := range r.rules {
		if !r.settings.Has(rule.Category()) {
			continue
		}
		canonical, ok, err := rule.Try(ctx, in)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}
		res, err := merge(canonical, req.Params)
		if err != nil {
			return nil, false, err
		}
		res.Category = rule.Category()
		return res, true, nil
	}
	return nil, false, nil
}

// merge parses canonical and folds its params into a copy of reqParams.
func merge(canonical string, reqParams Params) (*Result, error) {
	u, err := ParseURL(canonical)
	if err != nil {
		return nil, err
	}

	merged := reqParams.Clone()
	for _, k := range u.Params.Keys() {
		if reqParams.Has(k) {
			return nil, &ConflictError{Param: k, Canonical: canonical}
		}
		v, _ := u.Params.Get(k)
		merged.Set(k, strings.ReplaceAll(v, "+", " "))
	}
	return &Result{URL: u, Params: merged}, nil
}

//
// Rules
//

type defineForward struct{ svc lookup.Service }

func (defineForward) Category() Category { return DefineURL }

func (d defineForward) Try(ctx context.Context, in inbound) (string, bool, error) {
	m, err := d.svc.MappingByCustomURL(ctx, in.path)
	if err != nil {
		return notFound(err)
	}
	if m.DefaultURL == "" {
		return "", false, nil
	}
	return m.DefaultURL, true, nil
}

type courseForward struct{ svc lookup.Service }

func (courseForward) Category() Category { return CourseURL }

func (c courseForward) Try(ctx context.Context, in inbound) (string, bool, error) {
	if in.segments[0] != "course" {
		return "", false, nil
	}

	switch {
	case len(in.segments) == 2:
		course, err := c.svc.CourseByShortName(ctx, in.unique)
		if err != nil {
			return notFound(err)
		}
		return "/course/view.php?id=" + strconv.FormatInt(course.ID, 10), true, nil

	case len(in.segments) == 3 && in.segments[1] == "edit":
		course, err := c.svc.CourseByShortName(ctx, in.unique)
		if err != nil {
			return notFound(err)
		}
		return "/course/edit.php?id=" + strconv.FormatInt(course.ID, 10), true, nil

	case len(in.segments) == 4:
		id, err := strconv.ParseInt(in.segments[2], 10, 64)
		if err != nil {
			return "", false, nil
		}
		cat, err := c.svc.CategoryByID(ctx, id)
		if err != nil {
			return notFound(err)
		}
		return "/course/index.php?categoryid=" + strconv.FormatInt(cat.ID, 10), true, nil
	}
	return "", false, nil
}

type userForward struct{ svc lookup.Service }

func (userForward) Category() Category { return UserURL }

func (u userForward) Try(ctx context.Context, in inbound) (string, bool, error) {
	if in.segments[0] != "user" || len(in.segments) != 3 {
		return "", false, nil
	}
	user, err := u.svc.UserByUsername(ctx, in.unique)
	if err != nil {
		return notFound(err)
	}
	return "/user/profile.php?id=" + strconv.FormatInt(user.ID, 10), true, nil
}

// notFound turns lookup.ErrNotFound into a plain miss and passes anything
// else through.
func notFound(err error) (string, bool, error) {
	if errors.Is(err, lookup.ErrNotFound) {
		return "", false, nil
	}
	return "", false, err
}
