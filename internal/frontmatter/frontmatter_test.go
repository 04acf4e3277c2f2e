package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filemock/internal/diag"
)

func TestParse_NoFrontmatter(t *testing.T) {
	resp, err := Parse([]byte(`{"users":[]}`+"\n"), ".json")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, []byte(`{"users":[]}`+"\n"), resp.Body)
	ct, ok := resp.HeaderValue("content-type")
	assert.True(t, ok)
	assert.Equal(t, "application/json", ct)
}

func TestParse_StatusHeadersDelay(t *testing.T) {
	data := []byte("---\nstatus: 401\nheaders:\n  WWW-Authenticate: Bearer realm=\"api\"\ndelay: 50\n---\n{\"error\":\"unauthorized\"}")
	resp, err := Parse(data, ".json")
	require.NoError(t, err)
	assert.Equal(t, 401, resp.Status)
	assert.Equal(t, 50, resp.DelayMS)
	v, ok := resp.HeaderValue("www-authenticate")
	assert.True(t, ok)
	assert.Equal(t, `Bearer realm="api"`, v)
	assert.Equal(t, []byte(`{"error":"unauthorized"}`), resp.Body)
}

func TestParse_UnterminatedFrontmatter(t *testing.T) {
	_, err := Parse([]byte("---\nstatus: 200\n"), ".json")
	require.Error(t, err)
	var d diag.Diagnostic
	require.ErrorAs(t, err, &d)
	assert.Equal(t, diag.KindFrontmatterUnterminated, d.Kind)
}

func TestParse_InvalidStatus(t *testing.T) {
	_, err := Parse([]byte("---\nstatus: 9000\n---\nbody"), ".txt")
	require.Error(t, err)
	var d diag.Diagnostic
	require.ErrorAs(t, err, &d)
	assert.Equal(t, diag.KindInvalidStatus, d.Kind)
}

func TestParse_InvalidDelay(t *testing.T) {
	_, err := Parse([]byte("---\ndelay: -5\n---\nbody"), ".txt")
	require.Error(t, err)
	var d diag.Diagnostic
	require.ErrorAs(t, err, &d)
	assert.Equal(t, diag.KindInvalidDelay, d.Kind)
}

func TestParse_ExplicitContentTypeWins(t *testing.T) {
	data := []byte("---\nheaders:\n  Content-Type: text/csv\n---\na,b,c")
	resp, err := Parse(data, ".json")
	require.NoError(t, err)
	ct, ok := resp.HeaderValue("content-type")
	assert.True(t, ok)
	assert.Equal(t, "text/csv", ct)
}

func TestParse_UnknownExtensionDefaultsOctetStream(t *testing.T) {
	resp, err := Parse([]byte("hello"), ".bin")
	require.NoError(t, err)
	ct, _ := resp.HeaderValue("content-type")
	assert.Equal(t, "application/octet-stream", ct)
}

func TestParse_HeaderOrderPreserved(t *testing.T) {
	data := []byte("---\nheaders:\n  X-First: 1\n  X-Second: 2\n  X-Third: 3\n---\nbody")
	resp, err := Parse(data, ".txt")
	require.NoError(t, err)
	require.Len(t, resp.Headers, 4) // 3 explicit + inferred content-type
	assert.Equal(t, "X-First", resp.Headers[0].Name)
	assert.Equal(t, "X-Second", resp.Headers[1].Name)
	assert.Equal(t, "X-Third", resp.Headers[2].Name)
}
