// internal/lookup/lookup.go
//
// Read-only point lookups against the platform store.
//
// Context
// -------
// The rewriter needs exactly four record types, each fetched by a unique
// key.  Service hides where they come from so rule code can be tested
// against an in-memory fake and run in production against SQL (Store) with
// an optional TTL cache in front (Cached).
//
// Schema reference (platform tables, prefix omitted)
//
//	local_customcleanurl (id, custom_url UNIQUE, default_url)
//	course               (id, shortname UNIQUE, ...)
//	course_categories    (id, name, ...)
//	user                 (id, username UNIQUE, ...)
//
// Notes
// -----
// • A miss is ErrNotFound, never (nil, nil).  Callers treat it as the
//   normal fall-through case.
// • Oxford commas, two spaces after periods.

package lookup

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no record matches the key.
var ErrNotFound = errors.New("record not found")

// Mapping mirrors one administrator-defined row in local_customcleanurl.
type Mapping struct {
	ID         int64  `db:"id"`
	CustomURL  string `db:"custom_url"`
	DefaultURL string `db:"default_url"`
}

// Course carries the fields the rewriter reads from the course table.
type Course struct {
	ID        int64  `db:"id"`
	ShortName string `db:"shortname"`
}

// Category carries the fields read from course_categories.
type Category struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// User carries the fields read from the user table.
type User struct {
	ID       int64  `db:"id"`
	Username string `db:"username"`
}

// Service is the lookup contract.  Implementations must be safe for
// concurrent reads.
type Service interface {
	CourseByShortName(ctx context.Context, shortname string) (*Course, error)
	CourseByID(ctx context.Context, id int64) (*Course, error)
	CategoryByID(ctx context.Context, id int64) (*Category, error)
	UserByID(ctx context.Context, id int64) (*User, error)
	UserByUsername(ctx context.Context, username string) (*User, error)
	MappingByCustomURL(ctx context.Context, customURL string) (*Mapping, error)
	MappingByDefaultURL(ctx context.Context, defaultURL string) (*Mapping, error)
}
