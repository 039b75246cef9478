// ==================================================================================
//
// Work of the U.S. Department of the Navy, Naval Information Warfare Center Pacific.
// Released as open source under the MIT License.  See LICENSE file.
//
// ==================================================================================

package fs

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher(t *testing.T) {
	m, err := NewMatcher([]string{"/dst/*.log", "/dst/cache", "/dst/{a}", "/dst/?.bak"})
	require.NoError(t, err)

	assert.True(t, m.Match("/dst/a.log"))
	// a star also matches the path separator
	assert.True(t, m.Match("/dst/a/b/c.log"))
	assert.True(t, m.Match("/dst/cache"))
	assert.False(t, m.Match("/dst/cache/x"))
	assert.True(t, m.Match("/dst/{a}"))
	assert.False(t, m.Match("/dst/a"))
	assert.True(t, m.Match("/dst/x.bak"))
	assert.False(t, m.Match("/dst/xy.bak"))
	assert.False(t, m.Match("/dst"))

	assert.Equal(t, []string{"/dst/*.log", "/dst/cache", "/dst/{a}", "/dst/?.bak"}, m.Patterns())
}

func TestMatcherBackslashIsLiteral(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("backslashes are path separators on windows")
	}
	m, err := NewMatcher([]string{`/dst/a\*b`, `/dst/trailing\`})
	require.NoError(t, err)

	assert.True(t, m.Match(`/dst/a\xyzb`))
	assert.True(t, m.Match(`/dst/a\b`))
	assert.False(t, m.Match(`/dst/a*b`))
	assert.True(t, m.Match(`/dst/trailing\`))
	assert.False(t, m.Match(`/dst/trailing`))
}

func TestMatcherNil(t *testing.T) {
	var m *Matcher
	assert.False(t, m.Match("/dst/a"))
	assert.Nil(t, m.Patterns())

	m, err := NewMatcher(nil)
	require.NoError(t, err)
	assert.False(t, m.Match("/dst/a"))
}

func TestDestinationPatterns(t *testing.T) {
	m := newMemFileSystem()
	assert.Equal(t,
		[]string{"/dst/a/*", "/dst/b", "/dst/c"},
		DestinationPatterns(m, "/dst", []string{"a/*", "/b", "c/"}, true))
	assert.Equal(t,
		[]string{"/dst/file.bak"},
		DestinationPatterns(m, "/dst/file", []string{".bak"}, false))
}
