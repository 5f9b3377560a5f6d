package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportNames(t *testing.T) {
	assert.Equal(t, []string{"csv", "markdown", "text-summary"}, ReportNames())
}

func TestReport(t *testing.T) {
	for _, name := range ReportNames() {
		src, ok := Report(name)
		require.True(t, ok, name)
		assert.Contains(t, src, ".Matches", name)
	}
	_, ok := Report("sarif")
	assert.False(t, ok)
}

func TestExampleConfig(t *testing.T) {
	assert.Contains(t, string(ExampleConfig()), "url_keyword:")
}
