package picker

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// Media types the form accepts.
const (
	MediaTypeText  = "text/plain"
	MediaTypeExcel = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Types a browser reports for common extensions. Checked before the
// system MIME table, which decorates text types with a charset.
var declaredTypes = map[string]string{
	".txt":  MediaTypeText,
	".text": MediaTypeText,
	".log":  MediaTypeText,
	".xlsx": MediaTypeExcel,
	".xls":  "application/vnd.ms-excel",
	".csv":  "text/csv",
	".json": "application/json",
	".pdf":  "application/pdf",
	".md":   "text/markdown",
	".zip":  "application/zip",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// DetectMediaType detects the declared media type of a file, first from its
// extension and then from its content.
func DetectMediaType(filePath string, reader io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	if mediaType, ok := declaredTypes[ext]; ok {
		return mediaType, nil
	}

	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return stripParams(contentType), nil
	}

	if reader != nil {
		buffer := make([]byte, 512)
		n, err := reader.Read(buffer)
		if err != nil && err != io.EOF {
			return "", err
		}

		contentType := http.DetectContentType(buffer[:n])
		if contentType != "application/octet-stream" {
			return stripParams(contentType), nil
		}
	}

	return "application/octet-stream", nil
}

// Category returns a short label for a media type.
func Category(mediaType string) string {
	switch {
	case mediaType == MediaTypeExcel || mediaType == "application/vnd.ms-excel":
		return "spreadsheet"
	case strings.HasPrefix(mediaType, "text/"):
		return "text"
	case strings.HasPrefix(mediaType, "image/"):
		return "image"
	case strings.Contains(mediaType, "pdf"):
		return "document"
	case strings.Contains(mediaType, "zip"):
		return "archive"
	default:
		return "other"
	}
}

func stripParams(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return contentType
	}
	return mediaType
}
