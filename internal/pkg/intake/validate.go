package intake

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
)

var allowedExt = map[string]bool{
	".pdf":  true,
	".docx": true,
	".xlsx": true,
	".pptx": true,
	".txt":  true,
	".rtf":  true,
	".html": true,
	".htm":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tiff": true,
	".tif":  true,
	".bmp":  true,
	// Note: legacy .doc/.xls/.ppt are intentionally excluded, the processing
	// backend only handles OOXML
}

var allowedMime = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"application/zip": true, // OOXML containers sniff as zip
	"text/plain":      true,
	"application/rtf": true,
	"text/rtf":        true,
	"text/html":       true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/tiff":      true,
	"image/bmp":       true,
}

func isHTMLExt(ext string) bool {
	return ext == ".html" || ext == ".htm"
}

// ValidateDocumentBySniff checks the provided filename (extension) and the
// first bytes (head) against a whitelist of document types. Returns the
// detected mime or an error.
func ValidateDocumentBySniff(filename string, head []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", errors.New("unsupported file type: allowed formats are PDF, DOCX, XLSX, PPTX, TXT, RTF, HTML, JPG, PNG, TIFF, BMP")
	}

	detected := http.DetectContentType(head)

	// Block content that sniffs as markup unless the extension says so.
	// Catches scriptable payloads hiding behind a document extension.
	if !isHTMLExt(ext) {
		if strings.HasPrefix(detected, "text/html") || strings.HasPrefix(detected, "application/xhtml") {
			return "", errors.New("invalid file type: HTML content is not allowed here")
		}
		if strings.HasPrefix(detected, "text/xml") || strings.HasPrefix(detected, "application/xml") || detected == "image/svg+xml" {
			return "", errors.New("SVG/XML files are not supported")
		}
	}

	// Text-based formats (txt, rtf, html) sniff as text/plain with charset
	if strings.HasPrefix(detected, "text/plain") && (ext == ".txt" || ext == ".rtf" || isHTMLExt(ext)) {
		return detected, nil
	}
	if strings.HasPrefix(detected, "text/html") && isHTMLExt(ext) {
		return detected, nil
	}

	// PDF and OOXML occasionally sniff as octet-stream; trust the extension
	if detected == "application/octet-stream" && allowedExt[ext] {
		return detected, nil
	}

	base := detected
	if idx := strings.Index(detected, ";"); idx >= 0 {
		base = strings.TrimSpace(detected[:idx])
	}
	if allowedMime[base] {
		return detected, nil
	}

	return "", errors.New("the file type is not supported")
}

// FormatFromFilename derives the canonical format token from a filename
// extension ("report.DOCX" -> "docx"). Returns "" for unknown extensions.
func FormatFromFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return ""
	}
	switch ext {
	case ".htm":
		return "html"
	case ".jpeg":
		return "jpg"
	case ".tif":
		return "tiff"
	default:
		return strings.TrimPrefix(ext, ".")
	}
}
