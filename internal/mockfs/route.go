// Package mockfs compiles a mock-file directory tree into an immutable
// RouteTable and resolves (method, path) requests against it.
package mockfs

import "filemock/internal/frontmatter"

// Segment is one path component of a compiled route: either a literal
// directory name or a named capture (from a "[name]" directory).
type Segment struct {
	Literal   string
	IsCapture bool
}

// Route is one compiled file: a method bound to a segment chain and
// its fully-resolved response.
type Route struct {
	Segments   []Segment
	Method     string
	Response   frontmatter.CompiledResponse
	SourcePath string
	Pattern    string
}

// ParamNames returns the capture names in segment order, used by
// callers that want to know a route's parameters without matching.
func (r *Route) ParamNames() []string {
	var names []string
	for _, s := range r.Segments {
		if s.IsCapture {
			names = append(names, s.Literal)
		}
	}
	return names
}
