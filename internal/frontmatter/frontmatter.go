// Package frontmatter splits the optional YAML frontmatter block from a
// mock file's body and compiles it into an immutable CompiledResponse.
package frontmatter

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"filemock/internal/diag"
)

// Header is one response header in author-specified insertion order.
type Header struct {
	Name  string
	Value string
}

// CompiledResponse is the immutable, fully-resolved response a route
// serves. Once built it is never mutated; reloads produce new values.
type CompiledResponse struct {
	Status  int
	Headers []Header
	DelayMS int
	Body    []byte
}

// HeaderValue looks up a header by case-insensitive name, returning the
// first match in insertion order.
func (r CompiledResponse) HeaderValue(name string) (string, bool) {
	for _, h := range r.Headers {
		if equalFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

var extContentTypes = map[string]string{
	".json": "application/json",
	".html": "text/html",
	".xml":  "application/xml",
	".txt":  "text/plain",
}

const fence = "---"

// Parse splits data into a frontmatter block and body, then compiles
// the recognized keys into a CompiledResponse. ext is the file
// extension (including the leading dot) used for content-type
// inference when no explicit Content-Type header is present.
func Parse(data []byte, ext string) (CompiledResponse, error) {
	head, body, err := splitFrontmatter(data)
	if err != nil {
		return CompiledResponse{}, err
	}

	resp := CompiledResponse{Status: 200, Body: body}

	if len(bytes.TrimSpace(head)) > 0 {
		var doc yaml.Node
		if err := yaml.Unmarshal(head, &doc); err != nil {
			return CompiledResponse{}, diag.Diagnostic{Kind: diag.KindInvalidHeaderValue, Err: fmt.Errorf("invalid frontmatter YAML: %w", err)}
		}
		if len(doc.Content) > 0 {
			if err := applyMapping(&resp, doc.Content[0]); err != nil {
				return CompiledResponse{}, err
			}
		}
	}

	if _, ok := resp.HeaderValue("content-type"); !ok {
		ct, ok := extContentTypes[ext]
		if !ok {
			ct = "application/octet-stream"
		}
		resp.Headers = append(resp.Headers, Header{Name: "Content-Type", Value: ct})
	}

	return resp, nil
}

// splitFrontmatter finds the "---" fences. If the file does not begin
// with a fence line, the whole file is treated as the body.
func splitFrontmatter(data []byte) (head, body []byte, err error) {
	if !startsWithFence(data) {
		return nil, data, nil
	}

	// Skip the opening fence line.
	rest := data[len(fence):]
	rest = skipLineTerminator(rest)
	if rest == nil {
		return nil, nil, diag.Diagnostic{Kind: diag.KindFrontmatterUnterminated, Err: fmt.Errorf("no content after opening fence")}
	}

	lines := splitLinesKeepEnds(rest)
	consumed := 0
	for _, line := range lines {
		trimmed := bytes.TrimRight(line, "\r\n")
		if string(trimmed) == fence {
			head = rest[:consumed]
			body = rest[consumed+len(line):]
			return head, body, nil
		}
		consumed += len(line)
	}
	return nil, nil, diag.Diagnostic{Kind: diag.KindFrontmatterUnterminated, Err: fmt.Errorf("closing '---' fence not found")}
}

func startsWithFence(data []byte) bool {
	if !bytes.HasPrefix(data, []byte(fence)) {
		return false
	}
	rest := data[len(fence):]
	if len(rest) == 0 {
		return false
	}
	return rest[0] == '\n' || rest[0] == '\r'
}

// skipLineTerminator advances past a single line terminator ("\n" or
// "\r\n"). Returns nil if there is nothing left to consume.
func skipLineTerminator(data []byte) []byte {
	if len(data) == 0 {
		return nil
	}
	if data[0] == '\r' && len(data) > 1 && data[1] == '\n' {
		return data[2:]
	}
	if data[0] == '\n' || data[0] == '\r' {
		return data[1:]
	}
	return data
}

// splitLinesKeepEnds splits data into lines, each retaining its
// trailing terminator, so callers can reconstruct exact byte offsets.
func splitLinesKeepEnds(data []byte) [][]byte {
	var out [][]byte
	start := 0
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' {
			out = append(out, data[start:i+1])
			start = i + 1
		}
	}
	if start < len(data) {
		out = append(out, data[start:])
	}
	return out
}

// applyMapping walks a YAML mapping node in document order, applying
// recognized keys (status, headers, delay) and ignoring the rest.
func applyMapping(resp *CompiledResponse, node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valNode := node.Content[i+1]
		switch keyNode.Value {
		case "status":
			var status int
			if err := valNode.Decode(&status); err != nil {
				return diag.Diagnostic{Kind: diag.KindInvalidStatus, Err: err}
			}
			if status < 100 || status > 599 {
				return diag.Diagnostic{Kind: diag.KindInvalidStatus, Err: fmt.Errorf("status %d out of range [100, 599]", status)}
			}
			resp.Status = status

		case "headers":
			if valNode.Kind != yaml.MappingNode {
				return diag.Diagnostic{Kind: diag.KindInvalidHeaderValue, Err: fmt.Errorf("headers must be a mapping")}
			}
			for j := 0; j+1 < len(valNode.Content); j += 2 {
				hKey := valNode.Content[j]
				hVal := valNode.Content[j+1]
				if hVal.Kind != yaml.ScalarNode {
					return diag.Diagnostic{Kind: diag.KindInvalidHeaderValue, Err: fmt.Errorf("header %q must be a scalar value", hKey.Value)}
				}
				resp.Headers = append(resp.Headers, Header{Name: hKey.Value, Value: hVal.Value})
			}

		case "delay":
			var delay int
			if err := valNode.Decode(&delay); err != nil {
				return diag.Diagnostic{Kind: diag.KindInvalidDelay, Err: err}
			}
			if delay < 0 {
				return diag.Diagnostic{Kind: diag.KindInvalidDelay, Err: fmt.Errorf("delay %d must be >= 0", delay)}
			}
			resp.DelayMS = delay

		default:
			// Forward-compatible: unknown top-level keys are ignored.
		}
	}
	return nil
}
