package mockfs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"filemock/internal/diag"
	"filemock/internal/frontmatter"
)

var standardMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"DELETE":  true,
	"PATCH":   true,
	"HEAD":    true,
	"OPTIONS": true,
}

// CompileResult is the outcome of a full directory scan: the new
// table (nil on fatal failure) and the non-fatal diagnostics collected
// along the way. A fatal error for an unusable root is returned
// separately by Compile.
type CompileResult struct {
	Table       *RouteTable
	Diagnostics []diag.Diagnostic
}

// Compile walks root depth-first in lexicographic order, compiling
// every "<METHOD>.<EXT>" file it finds into a Route. It returns a
// fatal error only when the root directory itself cannot be scanned
// (RootMissing, RootNotADirectory); all other problems are collected
// as non-fatal diagnostics and the affected file is skipped.
func Compile(root string) (CompileResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		return CompileResult{}, diag.Diagnostic{Kind: diag.KindRootMissing, Path: root, Err: err}
	}
	if !info.IsDir() {
		return CompileResult{}, diag.Diagnostic{Kind: diag.KindRootNotADirectory, Path: root, Err: fmt.Errorf("not a directory")}
	}

	c := &compiler{
		seen: make(map[string]bool),
	}
	c.walk(root, nil, nil)

	return CompileResult{
		Table:       NewRouteTable(c.routes),
		Diagnostics: c.diagnostics,
	}, nil
}

type compiler struct {
	routes      []*Route
	diagnostics []diag.Diagnostic
	seen        map[string]bool // routeSignature ("METHOD|seg/seg/", captures as "*") -> already registered
}

// walk recurses into dir, extending segs (match segments) and pattern
// (canonical ":name" pattern parts) as it descends.
func (c *compiler) walk(dir string, segs []Segment, patternParts []string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		c.diagnostics = append(c.diagnostics, diag.Diagnostic{Kind: diag.KindFileUnreadable, Path: dir, Err: err})
		return
	}

	names := make([]string, 0, len(entries))
	byName := make(map[string]os.DirEntry, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
		byName[e.Name()] = e
	}
	sort.Strings(names) // deterministic, platform-independent lexicographic order

	for _, name := range names {
		entry := byName[name]
		full := filepath.Join(dir, name)

		if entry.IsDir() {
			childSeg, childPatternPart, ok := c.compileDirName(name, full)
			if !ok {
				continue
			}
			c.walk(full, append(segs, childSeg), append(patternParts, childPatternPart))
			continue
		}

		c.compileFile(full, name, segs, patternParts)
	}
}

// compileDirName classifies a directory entry: a valid "[name]"
// capture, a bracket-shaped-but-invalid name (literal + diagnostic),
// or a plain literal.
func (c *compiler) compileDirName(name, fullPath string) (Segment, string, bool) {
	if param, ok := captureName(name); ok {
		return Segment{Literal: param, IsCapture: true}, ":" + param, true
	}
	if looksBracketed(name) {
		c.diagnostics = append(c.diagnostics, diag.Diagnostic{
			Kind: diag.KindBadBracketName,
			Path: fullPath,
			Err:  fmt.Errorf("directory name %q is bracket-shaped but not a valid capture; treated as literal", name),
		})
	}
	return Segment{Literal: name}, name, true
}

// captureName reports whether name is exactly "[X]" with X a valid
// Go-style identifier, returning X.
func captureName(name string) (string, bool) {
	if len(name) < 3 || name[0] != '[' || name[len(name)-1] != ']' {
		return "", false
	}
	inner := name[1 : len(name)-1]
	if inner == "" {
		return "", false
	}
	if !isIdentStart(inner[0]) {
		return "", false
	}
	for i := 1; i < len(inner); i++ {
		if !isIdentPart(inner[i]) {
			return "", false
		}
	}
	// Reject nested brackets inside what would otherwise look valid,
	// e.g. "[[x]]" fails the identifier check above already since '['
	// is not a valid ident rune, so no extra check is needed here.
	return inner, true
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isIdentPart(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

func looksBracketed(name string) bool {
	return strings.ContainsAny(name, "[]")
}

// compileFile parses "<METHOD>.<EXT>" file names, compiles the
// frontmatter, and appends a Route on success.
func (c *compiler) compileFile(fullPath, name string, segs []Segment, patternParts []string) {
	if strings.Count(name, ".") != 1 {
		return // not a "<METHOD>.<EXT>" shape; silently not a route
	}
	dot := strings.IndexByte(name, '.')
	methodToken := name[:dot]
	ext := name[dot:]

	method := strings.ToUpper(methodToken)
	if !standardMethods[method] {
		c.diagnostics = append(c.diagnostics, diag.Diagnostic{
			Kind: diag.KindUnknownMethod,
			Path: fullPath,
			Err:  fmt.Errorf("unrecognized HTTP method token %q", methodToken),
		})
		return
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		c.diagnostics = append(c.diagnostics, diag.Diagnostic{Kind: diag.KindFileUnreadable, Path: fullPath, Err: err})
		return
	}

	resp, err := frontmatter.Parse(data, ext)
	if err != nil {
		if d, ok := err.(diag.Diagnostic); ok {
			d.Path = fullPath
			c.diagnostics = append(c.diagnostics, d)
		} else {
			c.diagnostics = append(c.diagnostics, diag.Diagnostic{Kind: diag.KindFrontmatterUnterminated, Path: fullPath, Err: err})
		}
		return
	}

	pattern := "/" + strings.Join(patternParts, "/")
	if len(patternParts) == 0 {
		pattern = "/"
	}

	routeSegs := make([]Segment, len(segs))
	copy(routeSegs, segs)

	sig := routeSignature(routeSegs, method)
	if c.seen[sig] {
		diagnosticID := uuid.NewString()
		c.diagnostics = append(c.diagnostics, diag.Diagnostic{
			Kind: diag.KindDuplicateRoute,
			Path: fullPath,
			Err:  fmt.Errorf("[%s] route %s %s already compiled from another file; keeping first-encountered", diagnosticID, method, pattern),
		})
		return
	}
	c.seen[sig] = true

	c.routes = append(c.routes, &Route{
		Segments:   routeSegs,
		Method:     method,
		Response:   resp,
		SourcePath: fullPath,
		Pattern:    pattern,
	})
}

func routeSignature(segs []Segment, method string) string {
	var b strings.Builder
	b.WriteString(method)
	b.WriteByte('|')
	for _, s := range segs {
		if s.IsCapture {
			b.WriteString("*")
		} else {
			b.WriteString(s.Literal)
		}
		b.WriteByte('/')
	}
	return b.String()
}
