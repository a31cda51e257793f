package templatestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "capstone_invite.html"),
		[]byte("<p>Hi {{ name }}</p>"),
		0o644,
	))

	s := New(dir)

	body, err := s.Resolve("capstone_invite")
	require.NoError(t, err)
	assert.Equal(t, "<p>Hi {{ name }}</p>", body)
}

func TestResolveUnknownID(t *testing.T) {
	s := New(t.TempDir())

	_, err := s.Resolve("missing")
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestResolveRejectsPathEscapes(t *testing.T) {
	s := New(t.TempDir())

	for _, id := range []string{"../secret", "a/b", "", "a.b"} {
		_, err := s.Resolve(id)
		assert.ErrorIs(t, err, ErrUnknownTemplate, "id %q", id)
	}
}
