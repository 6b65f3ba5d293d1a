package rewrite

import (
	"context"
	"strings"

	"github.com/yanizio/cleanurl/internal/lookup"
)

// memLookup is an in-memory lookup.Service.  err, when set, is returned
// from every call.
type memLookup struct {
	courses  []lookup.Course
	cats     []lookup.Category
	users    []lookup.User
	mappings []lookup.Mapping
	err      error
}

func (m *memLookup) CourseByShortName(_ context.Context, s string) (*lookup.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.courses {
		if m.courses[i].ShortName == s {
			return &m.courses[i], nil
		}
	}
	return nil, lookup.ErrNotFound
}

func (m *memLookup) CourseByID(_ context.Context, id int64) (*lookup.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.courses {
		if m.courses[i].ID == id {
			return &m.courses[i], nil
		}
	}
	return nil, lookup.ErrNotFound
}

func (m *memLookup) CategoryByID(_ context.Context, id int64) (*lookup.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.cats {
		if m.cats[i].ID == id {
			return &m.cats[i], nil
		}
	}
	return nil, lookup.ErrNotFound
}

func (m *memLookup) UserByID(_ context.Context, id int64) (*lookup.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.users {
		if m.users[i].ID == id {
			return &m.users[i], nil
		}
	}
	return nil, lookup.ErrNotFound
}

func (m *memLookup) UserByUsername(_ context.Context, name string) (*lookup.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.users {
		if strings.EqualFold(m.users[i].Username, name) {
			return &m.users[i], nil
		}
	}
	return nil, lookup.ErrNotFound
}

func (m *memLookup) MappingByCustomURL(_ context.Context, p string) (*lookup.Mapping, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.mappings {
		if m.mappings[i].CustomURL == p {
			return &m.mappings[i], nil
		}
	}
	return nil, lookup.ErrNotFound
}

func (m *memLookup) MappingByDefaultURL(_ context.Context, p string) (*lookup.Mapping, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.mappings {
		if m.mappings[i].DefaultURL == p {
			return &m.mappings[i], nil
		}
	}
	return nil, lookup.ErrNotFound
}

// fixture holds the records used across the rewrite tests.
func fixture() *memLookup {
	return &memLookup{
		courses: []lookup.Course{{ID: 42, ShortName: "cs101"}, {ID: 43, ShortName: "Art & Design"}},
		cats:    []lookup.Category{{ID: 5, Name: "Science"}, {ID: 6, Name: "Fine Arts"}},
		users:   []lookup.User{{ID: 7, Username: "JaneDoe"}},
		mappings: []lookup.Mapping{
			{ID: 1, CustomURL: "/about", DefaultURL: "/pages/about.php"},
			{ID: 2, CustomURL: "/contact", DefaultURL: "/pages/contact.php?foo=2"},
			{ID: 3, CustomURL: "/blank", DefaultURL: ""},
		},
	}
}

var allOn = Settings{Enabled: true, Categories: []Category{UserURL, CourseURL, DefineURL}}

func fixtureMapping(custom, def string) lookup.Mapping {
	return lookup.Mapping{ID: 100, CustomURL: custom, DefaultURL: def}
}
