// internal/rewrite/guard.go
//
// Collision guard.
//
// A clean path must never shadow something the web server would serve on
// its own.  FSGuard rejects a candidate when the platform root holds a
// directory at that path or a script at “path.php”.  The root is an fs.FS
// so production passes os.DirFS(dirroot) and tests pass fstest.MapFS.

package rewrite

import (
	"io/fs"
	"strings"
)

// Guard decides whether a candidate clean path may be used.
type Guard interface {
	Allowed(path string) bool
}

// GuardFunc adapts a plain function to Guard.
type GuardFunc func(path string) bool

// Allowed implements Guard.
func (f GuardFunc) Allowed(path string) bool { return f(path) }

// AllowAll is a Guard that never rejects.
var AllowAll Guard = GuardFunc(func(string) bool { return true })

// FSGuard checks candidates against a platform root directory.
type FSGuard struct {
	Root fs.FS
}

// Allowed implements Guard.  Paths that are not valid fs names (“..”
// segments, empty) are rejected.
func (g FSGuard) Allowed(path string) bool {
	name := strings.Trim(path, "/")
	if name == "" || !fs.ValidPath(name) {
		return false
	}
	if fi, err := fs.Stat(g.Root, name); err == nil && fi.IsDir() {
		return false
	}
	if fi, err := fs.Stat(g.Root, name+".php"); err == nil && fi.Mode().IsRegular() {
		return false
	}
	return true
}
