// Package inspect holds the content extraction collaborators behind the
// inspect_file tool: coarse content grouping, text excerpts from PDFs and
// images, media durations, and the PNG graphic-asset heuristic.
package inspect

import (
	"mime"
	"path/filepath"
	"strings"
)

var groupByExt = map[string]string{
	".pdf": "document", ".doc": "document", ".docx": "document", ".pages": "document",
	".txt": "document", ".rtf": "document", ".md": "document", ".numbers": "document",
	".xlsx": "document", ".xls": "document", ".csv": "document",
	".png": "image", ".jpg": "image", ".jpeg": "image", ".heic": "image",
	".webp": "image", ".gif": "image", ".tiff": "image",
	".mp3": "audio", ".flac": "audio", ".wav": "audio", ".aac": "audio",
	".m4a": "audio", ".ogg": "audio",
	".mp4": "video", ".mkv": "video", ".mov": "video", ".avi": "video",
	".webm": "video", ".m4v": "video",
}

// GroupOf classifies a path as document, image, audio, video or other,
// by extension first and MIME type as a fallback.
func GroupOf(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if group, ok := groupByExt[ext]; ok {
		return group
	}
	mt := mime.TypeByExtension(ext)
	switch {
	case mt == "":
		return "other"
	case strings.HasPrefix(mt, "audio/"):
		return "audio"
	case strings.HasPrefix(mt, "video/"):
		return "video"
	case strings.HasPrefix(mt, "image/"):
		return "image"
	case mt == "application/pdf" || strings.HasPrefix(mt, "text/plain"):
		return "document"
	}
	return "other"
}
