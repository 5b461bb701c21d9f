package storage

import (
	"path"
	"regexp"
	"strings"

	"github.com/segmentio/ksuid"
)

const maxSlugLen = 64

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases the joined parts and collapses every run of other
// characters into a single "-".
func Slug(parts ...string) string {
	s := strings.ToLower(strings.Join(parts, " "))
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLen {
		s = strings.TrimRight(s[:maxSlugLen], "-")
	}
	if s == "" {
		return "member"
	}
	return s
}

// ObjectPath builds "<prefix>/<slug>-<ksuid><ext>". The ksuid keeps two
// submissions with the same name from landing on the same key.
func ObjectPath(prefix, slug, ext string) string {
	return path.Join(prefix, slug+"-"+ksuid.New().String()+ext)
}
