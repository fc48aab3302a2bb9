package upnp

import (
	"encoding/xml"
	"strings"
)

// DefaultURIMetaData is the minimal DIDL-Lite document accepted by
// SetAVTransportURI when the caller has no real metadata for the URI.
const DefaultURIMetaData = `<DIDL-Lite xmlns="urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/" ` +
	`xmlns:dc="http://purl.org/dc/elements/1.1/" ` +
	`xmlns:upnp="urn:schemas-upnp-org:metadata-1-0/upnp/" ` +
	`xmlns:raumfeld="urn:schemas-raumfeld-com:meta-data/raumfeld">` +
	`<item parentID="0" id="0" restricted="1">` +
	`<upnp:class>object.item</upnp:class>` +
	`</item></DIDL-Lite>`

type didlLite struct {
	XMLName    xml.Name        `xml:"DIDL-Lite"`
	Items      []didlItem      `xml:"item"`
	Containers []didlContainer `xml:"container"`
}

type didlItem struct {
	Title       string    `xml:"title"`
	Artist      string    `xml:"artist"`
	Album       string    `xml:"album"`
	AlbumArtURI string    `xml:"albumArtURI"`
	Class       string    `xml:"class"`
	Res         []didlRes `xml:"res"`
}

type didlContainer struct {
	Title       string `xml:"title"`
	AlbumArtURI string `xml:"albumArtURI"`
}

type didlRes struct {
	URI string `xml:",chardata"`
}

// FirstItemURI returns the resource URI of the first item in a DIDL-Lite
// document, e.g. a Search result about to be played.
func FirstItemURI(didl string) (string, bool) {
	var doc didlLite
	if err := xml.Unmarshal([]byte(didl), &doc); err != nil {
		return "", false
	}
	for _, item := range doc.Items {
		for _, res := range item.Res {
			if uri := strings.TrimSpace(res.URI); uri != "" {
				return uri, true
			}
		}
	}
	return "", false
}

// AlbumArtURI returns the album art URI of the first item or container in
// a DIDL-Lite document.
func AlbumArtURI(didl string) (string, bool) {
	var doc didlLite
	if err := xml.Unmarshal([]byte(didl), &doc); err != nil {
		return "", false
	}
	for _, item := range doc.Items {
		if uri := strings.TrimSpace(item.AlbumArtURI); uri != "" {
			return uri, true
		}
	}
	for _, c := range doc.Containers {
		if uri := strings.TrimSpace(c.AlbumArtURI); uri != "" {
			return uri, true
		}
	}
	return "", false
}
