package imagesearch

import (
	"net/url"
	"regexp"
	"strings"
)

var sizedSegmentRe = regexp.MustCompile(`^\d+px-`)

// FullResolution maps a thumbnail-shaped URL to its full-resolution asset.
// ok is false when rawURL is a thumbnail that cannot be converted.
//
//	.../commons/thumb/a/ab/File.jpg/320px-File.jpg -> .../commons/a/ab/File.jpg
func FullResolution(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", false
	}

	segments := strings.Split(u.Path, "/")
	last := segments[len(segments)-1]
	sized := sizedSegmentRe.MatchString(last)

	thumbAt := -1
	for i, s := range segments {
		if s == "thumb" {
			thumbAt = i
			break
		}
	}

	switch {
	case thumbAt < 0 && !sized:
		return rawURL, true
	case thumbAt >= 0 && sized && len(segments)-thumbAt > 2:
		kept := append([]string{}, segments[:thumbAt]...)
		kept = append(kept, segments[thumbAt+1:len(segments)-1]...)
		u.Path = strings.Join(kept, "/")
		u.RawPath = ""
		return u.String(), true
	default:
		return "", false
	}
}

// LicenseAllowed reports whether license matches the allow-list. An empty
// license means the backend reports none and is accepted. Non-commercial and
// no-derivatives variants never match.
func LicenseAllowed(license string, allowed []string) bool {
	l := normalizeLicense(license)
	if l == "" {
		return true
	}
	if strings.Contains(l, " nc") || strings.Contains(l, " nd") {
		return false
	}
	for _, a := range allowed {
		a = normalizeLicense(a)
		if a != "" && strings.HasPrefix(l, a) {
			return true
		}
	}
	return false
}

func normalizeLicense(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
