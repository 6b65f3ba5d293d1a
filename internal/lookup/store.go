// internal/lookup/store.go
//
// SQL-backed Service.
//
// Context
// -------
// Store runs one parameterised SELECT per lookup against the platform
// database.  Queries are written with “?” placeholders and rebound through
// sqlx so the same text works on MySQL/MariaDB and Postgres, the two
// engines the platform supports.
//
// Notes
// -----
// • Table names carry the platform prefix (“mdl_” by default).
// • Usernames compare case-insensitively; clean links always carry the
//   lowercased form.
// • Errors other than sql.ErrNoRows are wrapped and returned verbatim so
//   the caller decides whether to log or degrade.

package lookup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// DefaultPrefix is the platform's stock table prefix.
const DefaultPrefix = "mdl_"

// Store implements Service on a *sqlx.DB.
type Store struct {
	db *sqlx.DB

	qCourseByShortName string
	qCourseByID        string
	qCategoryByID      string
	qUserByID          string
	qUserByUsername    string
	qMappingByCustom   string
	qMappingByDefault  string
}

var _ Service = (*Store)(nil)

// NewStore prepares query text for the given table prefix.
func NewStore(db *sqlx.DB, prefix string) *Store {
	t := func(name string) string { return prefix + name }
	s := &Store{db: db}

	s.qCourseByShortName = db.Rebind(`
        SELECT id, shortname
        FROM   ` + t("course") + `
        WHERE  shortname = ?
        LIMIT  1`)
	s.qCourseByID = db.Rebind(`
        SELECT id, shortname
        FROM   ` + t("course") + `
        WHERE  id = ?
        LIMIT  1`)
	s.qCategoryByID = db.Rebind(`
        SELECT id, name
        FROM   ` + t("course_categories") + `
        WHERE  id = ?
        LIMIT  1`)
	s.qUserByID = db.Rebind(`
        SELECT id, username
        FROM   ` + t("user") + `
        WHERE  id = ?
          AND  deleted = 0
        LIMIT  1`)
	s.qUserByUsername = db.Rebind(`
        SELECT id, username
        FROM   ` + t("user") + `
        WHERE  LOWER(username) = ?
          AND  deleted = 0
        LIMIT  1`)
	s.qMappingByCustom = db.Rebind(`
        SELECT id, custom_url, default_url
        FROM   ` + t("local_customcleanurl") + `
        WHERE  custom_url = ?
        LIMIT  1`)
	s.qMappingByDefault = db.Rebind(`
        SELECT   id, custom_url, default_url
        FROM     ` + t("local_customcleanurl") + `
        WHERE    default_url = ?
        ORDER BY id
        LIMIT    1`)
	return s
}

// CourseByShortName implements Service.
func (s *Store) CourseByShortName(ctx context.Context, shortname string) (*Course, error) {
	var c Course
	if err := s.get(ctx, &c, "course by shortname", s.qCourseByShortName, shortname); err != nil {
		return nil, err
	}
	return &c, nil
}

// CourseByID implements Service.
func (s *Store) CourseByID(ctx context.Context, id int64) (*Course, error) {
	var c Course
	if err := s.get(ctx, &c, "course by id", s.qCourseByID, id); err != nil {
		return nil, err
	}
	return &c, nil
}

// CategoryByID implements Service.
func (s *Store) CategoryByID(ctx context.Context, id int64) (*Category, error) {
	var c Category
	if err := s.get(ctx, &c, "category by id", s.qCategoryByID, id); err != nil {
		return nil, err
	}
	return &c, nil
}

// UserByID implements Service.
func (s *Store) UserByID(ctx context.Context, id int64) (*User, error) {
	var u User
	if err := s.get(ctx, &u, "user by id", s.qUserByID, id); err != nil {
		return nil, err
	}
	return &u, nil
}

// UserByUsername implements Service.
func (s *Store) UserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.get(ctx, &u, "user by username", s.qUserByUsername, strings.ToLower(username))
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// MappingByCustomURL implements Service.
func (s *Store) MappingByCustomURL(ctx context.Context, customURL string) (*Mapping, error) {
	var m Mapping
	if err := s.get(ctx, &m, "mapping by custom url", s.qMappingByCustom, customURL); err != nil {
		return nil, err
	}
	return &m, nil
}

// MappingByDefaultURL implements Service.
func (s *Store) MappingByDefaultURL(ctx context.Context, defaultURL string) (*Mapping, error) {
	var m Mapping
	err := s.get(ctx, &m, "mapping by default url", s.qMappingByDefault, defaultURL)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// get runs q and maps sql.ErrNoRows to ErrNotFound.
func (s *Store) get(ctx context.Context, dest any, what, q string, arg any) error {
	err := s.db.GetContext(ctx, dest, q, arg)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	default:
		return fmt.Errorf("lookup %s: %w", what, err)
	}
}
