package traffic

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/trafficsieve/trafficsieve/pkg/defaults"
	"github.com/trafficsieve/trafficsieve/pkg/strutil"
)

// Export output modes, as they appear in file names.
const (
	ModeContext = "context"
	ModeJSON    = "json"
)

// maxNameAttempts bounds the collision suffixes tried by Create.
const maxNameAttempts = 1000

// Export assembles matched pairs for writing. With preserveContext each
// pair contributes its request and response text verbatim; otherwise each
// pair contributes one entry holding its valid JSON texts joined by
// newlines. Entries keep input order; the caller joins them with the
// separator.
func Export(pairs []MatchedPair, preserveContext bool) *Result {
	res := &Result{Count: len(pairs), Pairs: pairs}
	for _, p := range pairs {
		if !preserveContext {
			res.Entries = append(res.Entries, strings.Join(p.JSON(), "\n"))
			continue
		}
		if !p.Request.IsZero() {
			res.Entries = append(res.Entries, p.Request.Text)
		}
		res.Entries = append(res.Entries, p.Response.Text)
	}
	return res
}

// ExportMode returns the file name mode for preserveContext.
func ExportMode(preserveContext bool) string {
	if preserveContext {
		return ModeContext
	}
	return ModeJSON
}

// OutputName returns <dir>/burp_<mode>_<keyword>_<YYYYMMDD_HHMMSS>.log with
// every non-alphanumeric keyword rune replaced by '_'.
func OutputName(dir, keyword string, preserveContext bool, now time.Time) string {
	name := strutil.SanitizeName(keyword)
	if name == "" {
		name = defaults.EmptyKeywordName
	}
	file := fmt.Sprintf("%s_%s_%s_%s%s",
		defaults.OutputPrefix, ExportMode(preserveContext), name,
		now.Format(defaults.TimestampLayout), defaults.OutputExt)
	return filepath.Join(dir, file)
}

// Create writes content to OutputName(dir, ...) and returns the path used.
// The file is created exclusively: when the name is taken (two runs in the
// same second) a _1, _2, ... suffix is added, so earlier output is never
// overwritten. A failed write removes the partial file.
func Create(dir, keyword string, preserveContext bool, now time.Time, content string) (string, error) {
	base := OutputName(dir, keyword, preserveContext, now)
	stem := strings.TrimSuffix(base, defaults.OutputExt)

	for i := 0; i < maxNameAttempts; i++ {
		path := base
		if i > 0 {
			path = fmt.Sprintf("%s_%d%s", stem, i, defaults.OutputExt)
		}
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if _, err := f.WriteString(content); err != nil {
			f.Close()
			os.Remove(path)
			return "", err
		}
		if err := f.Close(); err != nil {
			os.Remove(path)
			return "", err
		}
		return path, nil
	}
	return "", fmt.Errorf("no free output name after %d attempts: %s", maxNameAttempts, base)
}
