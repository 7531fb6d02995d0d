package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand()

	for _, path := range [][]string{
		{"version"},
		{"validate"},
		{"export"},
		{"jobs", "list"},
		{"jobs", "status"},
		{"jobs", "download"},
		{"me"},
		{"submissions"},
		{"contact"},
		{"feedback"},
		{"waitlist"},
		{"health"},
		{"reactify", "convert"},
		{"serve"},
	} {
		found, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], found.Name())
	}
}

func TestVersionCommand(t *testing.T) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "webunpack version dev\n", out.String())
}

func TestValidateCommandNeedsNoConfig(t *testing.T) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"validate", "https://acme.framer.website", "--type", "framer"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "acme.framer.website")
}
