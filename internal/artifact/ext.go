package artifact

import (
	"mime"
	"net/url"
	"path"
	"strings"
)

// DefaultExt is used when neither the content type nor the URL names a format.
const DefaultExt = "csv"

var mediaTypeExt = map[string]string{
	"text/csv":                     "csv",
	"application/csv":              "csv",
	"text/comma-separated-values":  "csv",
	"text/plain":                   "csv",
	"application/json":             "json",
	"text/json":                    "json",
	"application/x-ndjson":         "ndjson",
	"application/zip":              "zip",
	"application/x-zip-compressed": "zip",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": "xlsx",
}

var knownExt = map[string]bool{"csv": true, "json": true, "ndjson": true, "zip": true, "xlsx": true}

// ExtensionFor derives an artifact extension from a response Content-Type,
// falling back to the extension in rawURL's path and then DefaultExt.
func ExtensionFor(contentType, rawURL string) string {
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err == nil {
			if ext, ok := mediaTypeExt[strings.ToLower(mediaType)]; ok {
				return ext
			}
		}
	}

	if u, err := url.Parse(rawURL); err == nil {
		ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), ".")
		switch ext {
		case "txt":
			return "csv"
		case "jsonl":
			return "ndjson"
		}
		if knownExt[ext] {
			return ext
		}
	}

	return DefaultExt
}
