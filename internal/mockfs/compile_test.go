package mockfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMock(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestCompile_BasicGET(t *testing.T) {
	root := t.TempDir()
	writeMock(t, filepath.Join(root, "api", "users", "GET.json"), `{"users":[]}`+"\n")

	result, err := Compile(root)
	require.NoError(t, err)
	require.Len(t, result.Diagnostics, 0)
	require.Equal(t, 1, result.Table.Len())

	res := result.Table.Match("GET", "/api/users")
	require.Equal(t, Matched, res.Outcome)
	assert.Equal(t, "/api/users", res.Route.Pattern)
	ct, _ := res.Route.Response.HeaderValue("content-type")
	assert.Equal(t, "application/json", ct)
}

func TestCompile_PathCapture(t *testing.T) {
	root := t.TempDir()
	writeMock(t, filepath.Join(root, "api", "users", "[id]", "GET.json"), `{"id":"X"}`)

	result, err := Compile(root)
	require.NoError(t, err)
	res := result.Table.Match("GET", "/api/users/42")
	require.Equal(t, Matched, res.Outcome)
	assert.Equal(t, "/api/users/:id", res.Route.Pattern)
	assert.Equal(t, "42", res.Params["id"])
}

func TestCompile_MethodNotAllowedVsNotFound(t *testing.T) {
	root := t.TempDir()
	writeMock(t, filepath.Join(root, "a", "GET.json"), `{}`)

	result, err := Compile(root)
	require.NoError(t, err)

	res := result.Table.Match("POST", "/a")
	require.Equal(t, MethodNotAllowed, res.Outcome)
	assert.Equal(t, []string{"GET"}, res.Allowed)

	res = result.Table.Match("GET", "/b")
	assert.Equal(t, NotFound, res.Outcome)
}

func TestCompile_UnknownMethodDiagnostic(t *testing.T) {
	root := t.TempDir()
	writeMock(t, filepath.Join(root, "a", "FOO.json"), `{}`)

	result, err := Compile(root)
	require.NoError(t, err)
	require.Equal(t, 0, result.Table.Len())
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "UnknownMethod", string(result.Diagnostics[0].Kind))
}

func TestCompile_BadBracketNameTreatedAsLiteral(t *testing.T) {
	root := t.TempDir()
	writeMock(t, filepath.Join(root, "[bad", "GET.json"), `{}`)

	result, err := Compile(root)
	require.NoError(t, err)
	require.Equal(t, 1, result.Table.Len())
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "BadBracketName", string(result.Diagnostics[0].Kind))

	res := result.Table.Match("GET", "/[bad")
	assert.Equal(t, Matched, res.Outcome)
}

func TestCompile_DuplicateRouteKeepsFirst(t *testing.T) {
	root := t.TempDir()
	writeMock(t, filepath.Join(root, "a", "[x]", "GET.json"), `{"which":"first"}`)
	writeMock(t, filepath.Join(root, "a", "[y]", "GET.json"), `{"which":"second"}`)

	result, err := Compile(root)
	require.NoError(t, err)
	require.Equal(t, 1, result.Table.Len())
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "DuplicateRoute", string(result.Diagnostics[0].Kind))

	res := result.Table.Match("GET", "/a/42")
	require.Equal(t, Matched, res.Outcome)
	assert.Contains(t, string(res.Route.Response.Body), "first")
}

func TestCompile_RootMissing(t *testing.T) {
	_, err := Compile(filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}

func TestCompile_RootNotADirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	_, err := Compile(file)
	require.Error(t, err)
}

func TestCompile_LexicographicDiscoveryOrderFirstMatchWins(t *testing.T) {
	root := t.TempDir()
	// Two literal sibling routes; directory walk order is
	// alphabetical, so "a" precedes "zzz" and a file named GET.json
	// under each should compile in that order, which is the order
	// first-match-wins consults.
	writeMock(t, filepath.Join(root, "a", "GET.json"), `{"n":1}`)
	writeMock(t, filepath.Join(root, "zzz", "GET.json"), `{"n":2}`)

	result, err := Compile(root)
	require.NoError(t, err)
	require.Len(t, result.Table.Routes(), 2)
	assert.Equal(t, "/a", result.Table.Routes()[0].Pattern)
	assert.Equal(t, "/zzz", result.Table.Routes()[1].Pattern)
}
