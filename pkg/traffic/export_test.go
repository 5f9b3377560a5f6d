package traffic

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func TestOutputName(t *testing.T) {
	assert.Equal(t,
		filepath.Join("out", "burp_context_dipp_sf_express_com_20250314_092653.log"),
		OutputName("out", "dipp.sf-express.com", true, fixedNow))
	assert.Equal(t,
		filepath.Join(".", "burp_json_all_20250314_092653.log"),
		OutputName(".", "", false, fixedNow))
}

func TestExport(t *testing.T) {
	pairs := []MatchedPair{
		{
			Request:    Entry{Text: "REQ1", Kind: Request},
			Response:   Entry{Text: "RESP1", Kind: Response},
			Candidates: []Candidate{{Span: `{"a":1}`, Fixed: `{"a":1}`, Valid: true}, {Span: "{x}"}},
		},
		{
			Response:   Entry{Text: "RESP2", Kind: Response},
			Candidates: []Candidate{{Span: `[1]`, Fixed: `[1]`, Valid: true}, {Span: `{"b":2`, Fixed: `{"b":2}`, Valid: true, Repaired: true}},
		},
	}

	ctx := Export(pairs, true)
	assert.Equal(t, 2, ctx.Count)
	assert.Equal(t, []string{"REQ1", "RESP1", "RESP2"}, ctx.Entries)

	js := Export(pairs, false)
	assert.Equal(t, 2, js.Count)
	assert.Equal(t, []string{`{"a":1}`, "[1]\n{\"b\":2}"}, js.Entries)
	assert.Equal(t, `{"a":1}`+sep+"[1]\n{\"b\":2}", js.Text(sep))

	empty := Export(nil, true)
	assert.Zero(t, empty.Count)
	assert.Equal(t, "", empty.Text(sep))
}

func TestCreate(t *testing.T) {
	dir := t.TempDir()

	first, err := Create(dir, "api", true, fixedNow, "one")
	require.NoError(t, err)
	assert.Equal(t, OutputName(dir, "api", true, fixedNow), first)

	second, err := Create(dir, "api", true, fixedNow, "two")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "burp_context_api_20250314_092653_1.log"), second)

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data), "existing output is never overwritten")
}

func TestCreate_MissingDir(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "nope"), "api", true, fixedNow, "x")
	assert.Error(t, err)
}
