package reactify

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/north-cloud/webunpack/internal/domain"
)

func TestConvertFlagsDefaultToDashboardOptions(t *testing.T) {
	t.Parallel()

	cmd := NewConvertCommand()
	def := domain.DefaultConversionOptions()

	f := cmd.Flags()
	assert.Equal(t, def.Framework, f.Lookup("framework").DefValue)
	assert.Equal(t, def.Styling, f.Lookup("styling").DefValue)
	assert.Equal(t, "true", f.Lookup("typescript").DefValue)
	assert.Equal(t, def.OptimizationLevel, f.Lookup("optimization").DefValue)
}

func TestRenderJob(t *testing.T) {
	t.Parallel()

	n := 12
	size := 2.5
	var buf bytes.Buffer
	renderJob(&buf, &domain.ReactifyJob{
		JobID:               "r-1",
		PageURL:             "https://example.com/about",
		Status:              domain.StatusCompleted,
		ComponentsGenerated: &n,
		FileSizeMB:          &size,
	})

	out := buf.String()
	assert.Contains(t, out, "r-1")
	assert.Contains(t, out, "2.5 MB")
	assert.Contains(t, out, "12")
	assert.NotContains(t, out, "Error")
}

func TestDownloadRequiresJobID(t *testing.T) {
	t.Parallel()

	cmd := NewDownloadCommand()
	cmd.SetArgs([]string{"  "})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	require.Error(t, cmd.Execute())
}
