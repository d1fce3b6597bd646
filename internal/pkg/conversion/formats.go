package conversion

import "strings"

var imageFormats = map[string]bool{
	"jpg":  true,
	"png":  true,
	"tiff": true,
	"bmp":  true,
}

var officeFormats = map[string]bool{
	"docx": true,
	"xlsx": true,
	"pptx": true,
	"txt":  true,
	"rtf":  true,
	"html": true,
}

// NormalizeFormat canonicalizes a format token ("JPEG" -> "jpg")
func NormalizeFormat(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	f = strings.TrimPrefix(f, ".")
	switch f {
	case "jpeg":
		return "jpg"
	case "tif":
		return "tiff"
	case "htm":
		return "html"
	default:
		return f
	}
}

// CanConvert reports whether a source format can be converted to a target.
// The table is static: pdf converts to and from every office format and
// image format, images convert among themselves, and office formats convert
// to pdf only.
func CanConvert(from, to string) bool {
	from = NormalizeFormat(from)
	to = NormalizeFormat(to)
	if from == "" || to == "" || from == to {
		return false
	}

	switch {
	case from == "pdf":
		return officeFormats[to] || imageFormats[to]
	case to == "pdf":
		return officeFormats[from] || imageFormats[from]
	case imageFormats[from] && imageFormats[to]:
		return true
	default:
		return false
	}
}
