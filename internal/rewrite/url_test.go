package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParams_KeepsOrder(t *testing.T) {
	p, err := ParseParams("b=2&a=1&&c=x+y&b=3")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, p.Keys())

	v, ok := p.Get("b")
	assert.True(t, ok)
	assert.Equal(t, "3", v, "last value wins")
	v, _ = p.Get("c")
	assert.Equal(t, "x y", v)
	assert.Equal(t, "b=3&a=1&c=x+y", p.Encode())
}

func TestParseParams_BadEscape(t *testing.T) {
	_, err := ParseParams("a=%zz")
	assert.Error(t, err)
}

func TestParams_CloneIsIndependent(t *testing.T) {
	p := NewParams("id", "1")
	c := p.Clone()
	c.Set("id", "2")
	c.Set("x", "y")

	v, _ := p.Get("id")
	assert.Equal(t, "1", v)
	assert.Equal(t, 1, p.Len())
	assert.Equal(t, 2, c.Len())
}

func TestParseURL(t *testing.T) {
	u, err := ParseURL("https://lms.example.edu/course/view.php?id=42&section=1")
	require.NoError(t, err)
	assert.Equal(t, "/course/view.php", u.Path)
	assert.Equal(t, "/course/view.php?id=42&section=1", u.String())

	u, err = ParseURL("/course/Art+%26+Design")
	require.NoError(t, err)
	assert.Equal(t, "/course/Art+%26+Design", u.Path)
}

func TestSettings_ParseCategories(t *testing.T) {
	got := ParseCategories(" user_url,course_url,,bogus,user_url ")
	assert.Equal(t, []Category{UserURL, CourseURL}, got)
	assert.Empty(t, ParseCategories(""))

	s := Settings{Enabled: true, Categories: got}
	assert.True(t, s.Has(CourseURL))
	assert.False(t, s.Has(DefineURL))
}
