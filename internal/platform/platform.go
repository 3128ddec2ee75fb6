// Package platform classifies post URLs into known platforms.
package platform

import (
	"regexp"

	"postextract/internal/core/domain"
)

type matcher struct {
	platform domain.Platform
	pattern  *regexp.Regexp
}

// Ordered list; first match wins. Patterns anchor on the host segment so
// query-string mentions of another platform cannot misclassify a URL.
var matchers = []matcher{
	{domain.PlatformTikTok, regexp.MustCompile(`(?i)^https?://(www\.|vm\.|vt\.|m\.)?tiktok\.com/`)},
	{domain.PlatformInstagram, regexp.MustCompile(`(?i)^https?://(www\.|m\.)?instagram\.com/`)},
	{domain.PlatformYouTube, regexp.MustCompile(`(?i)^https?://((www\.|m\.)?youtube\.com/|youtu\.be/)`)},
	{domain.PlatformTwitter, regexp.MustCompile(`(?i)^https?://(www\.|mobile\.)?(twitter\.com|x\.com)/`)},
	{domain.PlatformFacebook, regexp.MustCompile(`(?i)^https?://((www\.|m\.|web\.)?facebook\.com|fb\.watch)/`)},
	{domain.PlatformReddit, regexp.MustCompile(`(?i)^https?://((www\.|old\.|new\.)?reddit\.com|redd\.it)/`)},
}

// Detect returns the platform a URL belongs to, or PlatformUnknown.
func Detect(url string) domain.Platform {
	for _, m := range matchers {
		if m.pattern.MatchString(url) {
			return m.platform
		}
	}
	return domain.PlatformUnknown
}
