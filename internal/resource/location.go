// Package resource models namespaced resource locations and the project-wide
// index that resolves them.
package resource

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultNamespace is implied when a location omits its namespace.
const DefaultNamespace = "minecraft"

var errEmptyLocation = errors.New("empty resource location")

// Location is a namespaced identifier such as minecraft:stone or #foo:bar.
type Location struct {
	Namespace string
	Path      string
	Tag       bool
	// Explicit records whether the namespace was written out.
	Explicit bool
}

// New returns a location with an explicit namespace.
func New(namespace, path string) Location {
	return Location{Namespace: namespace, Path: path, Explicit: true}
}

// Parse parses "[#][namespace:]path".
func Parse(s string) (Location, error) {
	var loc Location
	if strings.HasPrefix(s, "#") {
		loc.Tag = true
		s = s[1:]
	}
	if s == "" {
		return Location{}, errEmptyLocation
	}
	ns, path, found := strings.Cut(s, ":")
	if found {
		loc.Namespace, loc.Path, loc.Explicit = ns, path, true
	} else {
		loc.Namespace, loc.Path = DefaultNamespace, s
	}
	if loc.Namespace == "" {
		return Location{}, fmt.Errorf("resource location %q has an empty namespace", s)
	}
	if loc.Path == "" {
		return Location{}, fmt.Errorf("resource location %q has an empty path", s)
	}
	if i := strings.IndexFunc(loc.Namespace, func(r rune) bool { return !isNamespaceRune(r) }); i >= 0 {
		return Location{}, fmt.Errorf("invalid character %q in namespace of %q", loc.Namespace[i], s)
	}
	if i := strings.IndexFunc(loc.Path, func(r rune) bool { return !isPathRune(r) }); i >= 0 {
		return Location{}, fmt.Errorf("invalid character %q in path of %q", loc.Path[i], s)
	}
	return loc, nil
}

// MustParse is Parse for static data; it panics on error.
func MustParse(s string) Location {
	loc, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return loc
}

// AsString renders the location as written: the namespace appears only if
// it was explicit.
func (l Location) AsString() string {
	if l.Explicit {
		return l.prefix() + l.Namespace + ":" + l.Path
	}
	return l.prefix() + l.Path
}

// AsQualifiedString always includes the namespace.
func (l Location) AsQualifiedString() string {
	return l.prefix() + l.Namespace + ":" + l.Path
}

// AsCompactString omits the default namespace.
func (l Location) AsCompactString() string {
	if l.Namespace == DefaultNamespace {
		return l.prefix() + l.Path
	}
	return l.prefix() + l.Namespace + ":" + l.Path
}

// Key identifies the location regardless of how it was written or whether
// it is a tag reference.
func (l Location) Key() string {
	return l.Namespace + ":" + l.Path
}

// WithoutTag returns the location with the tag marker cleared.
func (l Location) WithoutTag() Location {
	l.Tag = false
	return l
}

func (l Location) String() string {
	return l.AsString()
}

func (l Location) prefix() string {
	if l.Tag {
		return "#"
	}
	return ""
}

func isNamespaceRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' || r == '.'
}

func isPathRune(r rune) bool {
	return isNamespaceRune(r) || r == '/'
}
