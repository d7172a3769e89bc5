package inspect

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"vaultsort/internal/pathutil"
)

const probeTimeout = 20 * time.Second

// ReadPDFText extracts up to limit bytes of plain text from a PDF. Any
// failure yields an empty string; extraction is best-effort context for the
// model, never a hard requirement.
func ReadPDFText(path string, limit int) (out string) {
	defer func() {
		if recover() != nil {
			out = ""
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	var sb strings.Builder
	buf := make([]byte, 4096)
	for sb.Len() < limit {
		n, rerr := reader.Read(buf)
		if n > 0 {
			sb.Write(buf[:n])
		}
		if rerr != nil {
			break
		}
	}
	return pathutil.CapText(sb.String(), limit)
}

// OCRImage runs the external tesseract binary and returns up to limit bytes
// of recognized text; missing binary or failures yield an empty string.
func OCRImage(ctx context.Context, path string, limit int) string {
	callCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	out, err := exec.CommandContext(callCtx, "tesseract", path, "stdout").Output()
	if err != nil {
		return ""
	}
	return pathutil.CapText(string(out), limit)
}

// FFProbeDuration returns a media file's duration in seconds via ffprobe,
// or ok=false when the probe fails.
func FFProbeDuration(ctx context.Context, path string) (float64, bool) {
	callCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	out, err := exec.CommandContext(callCtx,
		"ffprobe", "-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=nokey=1:noprint_wrappers=1",
		path,
	).Output()
	if err != nil {
		return 0, false
	}
	text := strings.TrimSpace(string(out))
	if text == "" {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return seconds, true
}
