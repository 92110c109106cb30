// Package classify maps request paths to resource classes that drive
// caching strategy selection.
package classify

import (
	"path"
	"strings"
)

// Class represents the category assigned to a requested resource path.
type Class string

const (
	// ClassStatic represents site assets: stylesheets, scripts, images, icons.
	ClassStatic Class = "static"

	// ClassAudio represents audio digest files.
	ClassAudio Class = "audio"

	// ClassDocument represents navigable markup documents.
	ClassDocument Class = "document"

	// ClassOther represents everything else (opaque pass-through traffic).
	ClassOther Class = "other"
)

// Directories whose contents are always static assets.
var staticDirs = []string{"/css/", "/js/", "/images/", "/icons/"}

// Suffixes of static assets served from arbitrary locations.
var staticSuffixes = []string{
	".css", ".js", ".mjs",
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico",
}

// Suffixes of audio digest files.
var audioSuffixes = []string{".mp3", ".m4a", ".ogg", ".wav"}

// Suffixes of navigable markup documents.
var markupSuffixes = []string{".html", ".htm"}

// Classify determines the resource class for a request path.
// It is deterministic and has no side effects.
//
// Rules apply in priority order: static directories and suffixes win over
// audio, audio wins over document. Extensionless paths are treated as
// navigable documents, not as opaque API endpoints, because the site serves
// localized pages under clean URLs (e.g. /en_GB/news).
func Classify(p string) Class {
	p = strings.ToLower(p)

	if underDir(p, staticDirs) || hasSuffix(p, staticSuffixes) {
		return ClassStatic
	}

	if hasSuffix(p, audioSuffixes) || strings.Contains(p, "/audio/") {
		return ClassAudio
	}

	if hasSuffix(p, markupSuffixes) || p == "/" || p == "" {
		return ClassDocument
	}

	// No extension in the final segment means a clean document URL.
	if path.Ext(path.Base(p)) == "" {
		return ClassDocument
	}

	return ClassOther
}

// IsNavigable reports whether a class represents a destination the user
// navigates to, i.e. one that may fall back to the offline document.
func IsNavigable(c Class) bool {
	return c == ClassDocument
}

func underDir(p string, dirs []string) bool {
	for _, dir := range dirs {
		if strings.Contains(p, dir) {
			return true
		}
	}
	return false
}

func hasSuffix(p string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(p, suffix) {
			return true
		}
	}
	return false
}
