package traffic

import (
	"strings"

	"github.com/trafficsieve/trafficsieve/pkg/defaults"
)

// Split cuts raw at every non-overlapping occurrence of sep and returns the
// pieces in order. Pieces that are empty or whitespace-only are dropped; all
// others are returned untrimmed. An empty sep means defaults.Separator.
func Split(raw, sep string) []string {
	if sep == "" {
		sep = defaults.Separator
	}
	var out []string
	for part := range strings.SplitSeq(raw, sep) {
		if strings.TrimSpace(part) == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
