package resolve

import (
	"net/url"
	"regexp"
	"strings"
)

var driveFileID = regexp.MustCompile(`/d/([^/]+)`)

// NormalizeLogoURL rewrites share-page links into direct-download links:
// Google Drive file pages become uc?export=download URLs and Dropbox share
// links get dl=1. Other URLs, and anything unparsable, are returned unchanged.
func NormalizeLogoURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	host := strings.ToLower(u.Hostname())

	if strings.Contains(host, "drive.google.com") {
		if m := driveFileID.FindStringSubmatch(u.Path); m != nil && m[1] != "" {
			return driveDownloadURL(m[1])
		}
		if id := u.Query().Get("id"); id != "" {
			return driveDownloadURL(id)
		}
		return raw
	}

	if strings.Contains(host, "dropbox.com") {
		q := u.Query()
		q.Set("dl", "1")
		u.RawQuery = q.Encode()
		return u.String()
	}

	return raw
}

func driveDownloadURL(id string) string {
	return "https://drive.google.com/uc?export=download&id=" + url.QueryEscape(id)
}
