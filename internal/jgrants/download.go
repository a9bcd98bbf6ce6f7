package jgrants

import (
	"net/url"
	"strconv"
	"strings"
)

// DownloadURL builds the locator for one attachment. Detail and resolve
// both call it, so equal inputs always yield equal URLs.
func DownloadURL(base, subsidyID string, c Category, index int) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	b.WriteString("/subsidies/")
	b.WriteString(url.PathEscape(subsidyID))
	b.WriteString("/")
	b.WriteString(string(c))
	b.WriteString("/")
	b.WriteString(strconv.Itoa(index))
	return b.String()
}

// LocatorID picks the identifier encoded in download URLs: the record's own
// id when it has one, otherwise the id the caller asked for.
func (r *Record) LocatorID(requestedID string) string {
	if r.ID != "" {
		return r.ID
	}
	return requestedID
}

// AttachDownloadURLs assigns a URL to every attachment and drops its data
// payload. Categories are walked in fixed order and indices are positional.
func (r *Record) AttachDownloadURLs(base, requestedID string) {
	id := r.LocatorID(requestedID)
	for _, c := range Categories {
		list := r.Attachments[c]
		for i := range list {
			list[i].URL = DownloadURL(base, id, c, i)
			list[i].Data = nil
			list[i].hasData = false
		}
	}
}
