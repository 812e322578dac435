// AngelaMos | 2026
// routes.go

package middleware

import (
	"path"
	"strings"
)

type RouteClass int

const (
	// ClassProtected needs any valid session.
	ClassProtected RouteClass = iota
	// ClassPublic skips the token check entirely.
	ClassPublic
	// ClassAdmin needs a valid session carrying the admin role.
	ClassAdmin
	// ClassAPI attaches identity when present but never redirects; the
	// handler decides how to answer an anonymous caller.
	ClassAPI
)

func (c RouteClass) String() string {
	switch c {
	case ClassPublic:
		return "public"
	case ClassAdmin:
		return "admin"
	case ClassAPI:
		return "api"
	default:
		return "protected"
	}
}

type RouteRule struct {
	Name  string
	Match func(p string) bool
	Class RouteClass
}

func Exact(p string) func(string) bool {
	return func(candidate string) bool {
		return candidate == p
	}
}

func Prefix(prefix string) func(string) bool {
	return func(candidate string) bool {
		return strings.HasPrefix(candidate, prefix)
	}
}

// Subtree matches base itself and anything below base + "/".
func Subtree(base string) func(string) bool {
	base = strings.TrimSuffix(base, "/")
	return func(candidate string) bool {
		return candidate == base || strings.HasPrefix(candidate, base+"/")
	}
}

func StaticDir() func(string) bool {
	return AnyOf(Prefix("/_next/"), Prefix("/static/"), Prefix("/favicon"))
}

// StaticFile matches a path whose last segment carries an extension.
func StaticFile() func(string) bool {
	return func(candidate string) bool {
		return strings.Contains(path.Base(candidate), ".")
	}
}

func AnyOf(matchers ...func(string) bool) func(string) bool {
	return func(candidate string) bool {
		for _, m := range matchers {
			if m(candidate) {
				return true
			}
		}
		return false
	}
}

// DefaultRouteRules is evaluated top to bottom; the first match wins and
// anything unmatched is protected. The extension heuristic sits below the
// admin rule so /admin/export.csv stays admin-only.
func DefaultRouteRules() []RouteRule {
	return []RouteRule{
		{Name: "auth-pages", Match: Subtree("/auth"), Class: ClassPublic},
		{Name: "home", Match: Exact("/"), Class: ClassPublic},
		{Name: "static-dir", Match: StaticDir(), Class: ClassPublic},
		{Name: "auth-api", Match: Subtree("/api/auth"), Class: ClassPublic},
		{Name: "test-api", Match: Prefix("/api/test"), Class: ClassPublic},
		{Name: "health", Match: AnyOf(
			Exact("/healthz"),
			Exact("/livez"),
			Exact("/readyz"),
		), Class: ClassPublic},
		{Name: "admin", Match: Prefix("/admin"), Class: ClassAdmin},
		{Name: "static-file", Match: StaticFile(), Class: ClassPublic},
		{Name: "api", Match: Subtree("/api"), Class: ClassAPI},
	}
}

type RouteTable struct {
	rules []RouteRule
}

func NewRouteTable(rules []RouteRule) *RouteTable {
	return &RouteTable{rules: rules}
}

// Classify works on the cleaned path, so dot segments cannot walk a request
// out of an admin prefix into a public one.
func (t *RouteTable) Classify(p string) (RouteClass, string) {
	p = path.Clean("/" + p)
	for _, rule := range t.rules {
		if rule.Match(p) {
			return rule.Class, rule.Name
		}
	}
	return ClassProtected, "default"
}
