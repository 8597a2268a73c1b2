package utils

import (
	"net/http"
	"net/url"
	"strings"
)

// IsValidUrl tests a string to determine if it is a well-structured url or not.
func IsValidUrl(uri string) bool {
	_, err := url.ParseRequestURI(uri)
	if err != nil {
		return false
	}

	u, err := url.Parse(uri)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}

	return true
}

// DetectContentType sniffs the MIME type of the provided data.
// Only the first 512 bytes are used to sniff the content type.
func DetectContentType(data []byte) string {
	if len(data) > 512 {
		data = data[:512]
	}
	// Always returns a valid content-type and "application/octet-stream" if no others seemed to match.
	return http.DetectContentType(data)
}

// IsImage reports whether the sniffed content type of data is an image type.
func IsImage(data []byte) bool {
	return strings.HasPrefix(DetectContentType(data), "image/")
}
