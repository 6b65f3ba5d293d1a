package rewrite

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolve(t *testing.T, s Settings, svc *memLookup, uri string) (*Result, bool, error) {
	t.Helper()
	return NewResolver(s, svc).ResolveURI(context.Background(), uri)
}

func TestResolve_Disabled(t *testing.T) {
	s := Settings{Enabled: false, Categories: Categories}
	for _, uri := range []string{"/about", "/course/cs101", "/user/profile/janedoe"} {
		res, ok, err := resolve(t, s, fixture(), uri)
		require.NoError(t, err)
		assert.False(t, ok, uri)
		assert.Nil(t, res, uri)
	}
}

func TestResolve_Course(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"/course/cs101", "/course/view.php?id=42"},
		{"/course/edit/cs101", "/course/edit.php?id=42"},
		{"/course/Art+%26+Design", "/course/view.php?id=43"},
		{"/course/category/5/science", "/course/index.php?categoryid=5"},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			res, ok, err := resolve(t, allOn, fixture(), tt.uri)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.want, res.URL.String())
			assert.Equal(t, CourseURL, res.Category)
		})
	}
}

func TestResolve_CourseMisses(t *testing.T) {
	for _, uri := range []string{
		"/course/nosuch",
		"/course/view/cs101",
		"/course/category/99/x",
		"/course/category/abc/x",
		"/course",
		"/course/a/b/c/d",
	} {
		res, ok, err := resolve(t, allOn, fixture(), uri)
		require.NoError(t, err, uri)
		assert.False(t, ok, uri)
		assert.Nil(t, res, uri)
	}
}

func TestResolve_User(t *testing.T) {
	res, ok, err := resolve(t, allOn, fixture(), "/user/profile/janedoe")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/user/profile.php?id=7", res.URL.String())
	assert.Equal(t, UserURL, res.Category)

	_, ok, err = resolve(t, allOn, fixture(), "/user/janedoe")
	require.NoError(t, err)
	assert.False(t, ok, "two segments is not a profile path")
}

func TestResolve_Define(t *testing.T) {
	res, ok, err := resolve(t, allOn, fixture(), "/about")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/pages/about.php", res.URL.String())
	assert.Equal(t, DefineURL, res.Category)
}

func TestResolve_EmptyDefaultURLIsMiss(t *testing.T) {
	_, ok, err := resolve(t, allOn, fixture(), "/blank")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolve_DefineWinsOverCourse(t *testing.T) {
	svc := fixture()
	svc.mappings = append(svc.mappings,
		fixtureMapping("/course/cs101", "/local/landing.php"))

	res, ok, err := resolve(t, allOn, svc, "/course/cs101")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/local/landing.php", res.URL.String())
}

func TestResolve_CategoryNotEnabledIsSkipped(t *testing.T) {
	s := Settings{Enabled: true, Categories: []Category{DefineURL}}
	_, ok, err := resolve(t, s, fixture(), "/course/cs101")
	require.NoError(t, err)
	assert.False(t, ok)

	s = Settings{Enabled: true, Categories: []Category{CourseURL}}
	_, ok, err = resolve(t, s, fixture(), "/about")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolve_MergesParams(t *testing.T) {
	res, ok, err := resolve(t, allOn, fixture(), "/course/cs101?section=3")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, []string{"section", "id"}, res.Params.Keys())
	v, _ := res.Params.Get("id")
	assert.Equal(t, "42", v)
	v, _ = res.Params.Get("section")
	assert.Equal(t, "3", v)
}

func TestResolve_PlusBecomesSpace(t *testing.T) {
	svc := fixture()
	svc.mappings = append(svc.mappings, fixtureMapping("/search", "/search/index.php?q=a%2Bb"))

	res, ok, err := resolve(t, allOn, svc, "/search")
	require.NoError(t, err)
	require.True(t, ok)
	v, _ := res.Params.Get("q")
	assert.Equal(t, "a b", v)
}

func TestResolve_Conflict(t *testing.T) {
	res, ok, err := resolve(t, allOn, fixture(), "/contact?foo=1")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrConflict)

	var ce *ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "foo", ce.Param)
	assert.Equal(t, "/pages/contact.php?foo=2", ce.Canonical)
	assert.Contains(t, err.Error(), `parameter "foo" is restricted`)
}

func TestResolve_ConflictOnCourseID(t *testing.T) {
	_, _, err := resolve(t, allOn, fixture(), "/course/cs101?id=9")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestResolve_DoesNotMutateRequest(t *testing.T) {
	req, err := ParseRequest("/course/cs101?section=3")
	require.NoError(t, err)

	_, ok, err := NewResolver(allOn, fixture()).Resolve(context.Background(), req)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"section"}, req.Params.Keys())
}

func TestResolve_LookupError(t *testing.T) {
	svc := fixture()
	svc.err = errors.New("db down")
	_, ok, err := resolve(t, allOn, svc, "/about")
	assert.False(t, ok)
	assert.EqualError(t, err, "db down")
}
