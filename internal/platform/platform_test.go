package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestResolveWatchDir(t *testing.T) {
	tests := []struct {
		goos     string
		env      map[string]string
		expected string
	}{
		{
			goos:     "darwin",
			env:      map[string]string{"HOME": "/Users/lauren"},
			expected: "/Users/lauren/Desktop/email_service_data",
		},
		{
			goos:     "windows",
			env:      map[string]string{"USERPROFILE": `C:\Users\ethan`},
			expected: `C:\Users\ethan\Desktop\email_service_data`,
		},
		{
			goos:     "darwin",
			env:      map[string]string{"HOME": "/Users/lauren/"},
			expected: "/Users/lauren/Desktop/email_service_data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			p, err := Resolve(tt.goos)
			require.NoError(t, err)

			dir, err := p.WatchDir(env(tt.env))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, dir)
		})
	}
}

func TestResolveUnsupported(t *testing.T) {
	for _, goos := range []string{"linux", "freebsd", ""} {
		_, err := Resolve(goos)
		assert.ErrorIs(t, err, ErrUnsupported, goos)
	}
}

func TestWatchDirMissingHome(t *testing.T) {
	p, err := Resolve("windows")
	require.NoError(t, err)

	_, err = p.WatchDir(env(nil))
	assert.ErrorContains(t, err, "USERPROFILE")
}

func TestJoin(t *testing.T) {
	p, _ := Resolve("windows")
	assert.Equal(t, `dir\fail.txt`, p.Join("dir", "fail.txt"))
}
