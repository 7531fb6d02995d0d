package export_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/north-cloud/webunpack/cmd/export"
	"github.com/north-cloud/webunpack/internal/domain"
)

func discovered(n int) []domain.DiscoveredPage {
	pages := make([]domain.DiscoveredPage, n)
	for i := range pages {
		pages[i] = domain.DiscoveredPage{URL: fmt.Sprintf("https://example.com/%d", i+1)}
	}
	return pages
}

func TestParseSelection(t *testing.T) {
	t.Parallel()

	pages := discovered(10)
	tests := []struct {
		name    string
		spec    string
		want    []string
		wantErr bool
	}{
		{name: "single", spec: "3", want: []string{"https://example.com/3"}},
		{name: "list keeps order", spec: "5, 1", want: []string{"https://example.com/5", "https://example.com/1"}},
		{name: "range", spec: "2-4", want: []string{"https://example.com/2", "https://example.com/3", "https://example.com/4"}},
		{name: "duplicates dropped", spec: "1,1-2", want: []string{"https://example.com/1", "https://example.com/2"}},
		{name: "out of range", spec: "11", wantErr: true},
		{name: "zero", spec: "0", wantErr: true},
		{name: "reversed range", spec: "4-2", wantErr: true},
		{name: "not a number", spec: "two", wantErr: true},
		{name: "empty", spec: " , ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := export.ParseSelection(tt.spec, pages)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLink(t *testing.T) {
	t.Parallel()

	u, typ, mode, err := export.ParseLink("https://app.example/dashboard?url=https%3A%2F%2Facme.webflow.io&type=webflow&mode=multi_page")
	require.NoError(t, err)
	assert.Equal(t, "https://acme.webflow.io", u)
	assert.Equal(t, "webflow", typ)
	assert.Equal(t, "multi_page", mode)

	_, _, _, err = export.ParseLink("https://app.example/dashboard?type=webflow")
	require.Error(t, err)
}
