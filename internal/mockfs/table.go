package mockfs

import (
	"net/url"
	"sort"
	"strings"
)

// Outcome classifies the result of matching a request against a
// RouteTable.
type Outcome int

const (
	NotFound Outcome = iota
	MethodNotAllowed
	Matched
)

// Result is the outcome of Match, carrying the matched route and
// captured parameters on a hit, or the union of allowed methods when
// the path shape exists but the method does not.
type Result struct {
	Outcome Outcome
	Route   *Route
	Params  map[string]string
	Allowed []string
}

// RouteTable is an immutable snapshot of compiled routes plus a
// derived path-shape index. Once built it is never mutated; reloads
// produce a new RouteTable and publish it as a unit.
type RouteTable struct {
	routes []*Route

	// PathIndex maps each distinct route pattern (with capture
	// segments rendered as ":name") to the sorted set of methods
	// registered under it. It is an introspection aid only — request
	// dispatch does not read it and always
	// re-derives allowed methods from a live segment match, since two
	// differently-named captures at the same position are distinct
	// patterns but identical match shapes.
	PathIndex map[string][]string
}

// NewRouteTable builds a RouteTable from already-compiled routes,
// preserving their discovery order (first-match-wins depends on it).
func NewRouteTable(routes []*Route) *RouteTable {
	t := &RouteTable{
		routes:    routes,
		PathIndex: make(map[string][]string),
	}
	methodSets := make(map[string]map[string]struct{})
	for _, r := range routes {
		set, ok := methodSets[r.Pattern]
		if !ok {
			set = make(map[string]struct{})
			methodSets[r.Pattern] = set
		}
		set[r.Method] = struct{}{}
	}
	for pattern, set := range methodSets {
		methods := make([]string, 0, len(set))
		for m := range set {
			methods = append(methods, m)
		}
		sort.Strings(methods)
		t.PathIndex[pattern] = methods
	}
	return t
}

// Routes returns the compiled routes in discovery order. Callers must
// not mutate the returned slice or its elements.
func (t *RouteTable) Routes() []*Route {
	return t.routes
}

// Len reports the number of compiled routes.
func (t *RouteTable) Len() int {
	return len(t.routes)
}

// Match resolves a request method and raw request path against the
// table using first-match-wins segment comparison, per route discovery
// order. The path is normalized (leading/trailing empty segments
// discarded) and percent-decoded before comparison.
func (t *RouteTable) Match(method, rawPath string) Result {
	segs, ok := normalizePath(rawPath)
	if !ok {
		return Result{Outcome: NotFound}
	}
	method = strings.ToUpper(method)

	allowed := make(map[string]struct{})
	shapeMatched := false

	for _, r := range t.routes {
		if len(r.Segments) != len(segs) {
			continue
		}
		params, ok := matchSegments(r.Segments, segs)
		if !ok {
			continue
		}
		shapeMatched = true
		allowed[r.Method] = struct{}{}
		if r.Method == method {
			return Result{Outcome: Matched, Route: r, Params: params}
		}
	}

	if shapeMatched {
		methods := make([]string, 0, len(allowed))
		for m := range allowed {
			methods = append(methods, m)
		}
		sort.Strings(methods)
		return Result{Outcome: MethodNotAllowed, Allowed: methods}
	}
	return Result{Outcome: NotFound}
}

// matchSegments compares a route's segments against a normalized
// request path, capturing parameter values as it goes. It returns
// ok=false as soon as a literal segment mismatches.
func matchSegments(routeSegs []Segment, reqSegs []string) (map[string]string, bool) {
	var params map[string]string
	for i, rs := range routeSegs {
		if rs.IsCapture {
			if params == nil {
				params = make(map[string]string)
			}
			params[rs.Literal] = reqSegs[i]
			continue
		}
		if rs.Literal != reqSegs[i] {
			return nil, false
		}
	}
	if params == nil {
		params = map[string]string{}
	}
	return params, true
}

// normalizePath splits a request path into segments, discarding
// leading/trailing empty segments (so "/a/b/" and "/a/b" are
// equivalent) and percent-decoding each one.
func normalizePath(rawPath string) ([]string, bool) {
	trimmed := strings.Trim(rawPath, "/")
	if trimmed == "" {
		return []string{}, true
	}
	parts := strings.Split(trimmed, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		decoded, err := url.PathUnescape(p)
		if err != nil {
			return nil, false
		}
		out = append(out, decoded)
	}
	return out, true
}
