// Package pathutil normalizes filesystem paths and names so that every
// component of the agent sees the same canonical spelling of a path,
// regardless of how the OS or the model wrote it.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/unicode/norm"
)

// macOS stores filenames in NFD; everywhere else NFC is the norm.
var unicodeForm = func() norm.Form {
	if runtime.GOOS == "darwin" {
		return norm.NFD
	}
	return norm.NFC
}()

// NormPath returns a cleaned path with consistent Unicode normalization.
func NormPath(path string) string {
	return filepath.Clean(unicodeForm.String(path))
}

var (
	unsafeRunes = regexp.MustCompile(`[^\w.\-() ]+`)
	manySpaces  = regexp.MustCompile(`\s+`)
)

// SafeASCII transliterates a name to filesystem-safe ASCII. It is total and
// idempotent and never returns an empty string.
func SafeASCII(s string) string {
	s = unidecode.Unidecode(s)
	s = strings.TrimSpace(unsafeRunes.ReplaceAllString(s, "_"))
	s = strings.TrimSpace(manySpaces.ReplaceAllString(s, " "))
	if s == "" {
		return "unnamed"
	}
	return s
}

// SafeMove moves src into dstDir under a sanitized name, suffixing " (n)"
// instead of overwriting an existing entry. Returns the final destination.
func SafeMove(src, dstDir, newName string, dryRun bool) (string, error) {
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", err
	}
	if newName == "" {
		newName = filepath.Base(src)
	}
	name := SafeASCII(newName)
	target := filepath.Join(dstDir, name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; PathExists(target); i++ {
		target = filepath.Join(dstDir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
	}
	if !dryRun {
		if err := os.Rename(src, target); err != nil {
			return "", err
		}
	}
	return target, nil
}

// PathExists reports whether the path exists at all (file, dir or otherwise).
func PathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// RemoveEmptyDirs prunes empty directories under base, deepest first. The
// reserved skip name and symlinks are left alone. Removal failures are
// ignored; this runs under interrupt pressure and must tolerate partial work.
func RemoveEmptyDirs(base string, skip string) {
	info, err := os.Lstat(base)
	if err != nil || !info.IsDir() {
		return
	}
	entries, err := os.ReadDir(base)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.Name() == skip {
			continue
		}
		if entry.Type()&os.ModeSymlink != 0 {
			continue
		}
		if entry.IsDir() {
			child := filepath.Join(base, entry.Name())
			RemoveEmptyDirs(child, skip)
			_ = os.Remove(child) // fails when non-empty, which is fine
		}
	}
}

// CapText truncates s to at most limit bytes.
func CapText(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
