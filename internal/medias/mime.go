package medias

import (
	"mime"
	"strings"
)

// Fallback for unknown extensions
const defaultMimeType = "application/octet-stream"

// Types of the files commonly embedded in lessons.
// Other extensions are resolved using the system MIME database.
var mimeTypes = map[string]string{
	// Images
	".apng": "image/apng",
	".avif": "image/avif",
	".bmp":  "image/bmp",
	".gif":  "image/gif",
	".ico":  "image/vnd.microsoft.icon",
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".svg":  "image/svg+xml",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",

	// Audio (ex: pronunciation)
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".mp3":  "audio/mpeg",
	".oga":  "audio/ogg",
	".ogg":  "audio/ogg",
	".opus": "audio/opus",
	".wav":  "audio/wav",
	".weba": "audio/webm",

	// Video
	".mp4":  "video/mp4",
	".mpeg": "video/mpeg",
	".ogv":  "video/ogg",
	".webm": "video/webm",

	// Documents
	".csv":  "text/csv",
	".json": "application/json",
	".md":   "text/markdown",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
}

// MimeType returns the MIME type of a file extension (ex: ".png").
func MimeType(extension string) string {
	extension = strings.ToLower(extension)
	if mimeType, ok := mimeTypes[extension]; ok {
		return mimeType
	}
	if mimeType := mime.TypeByExtension(extension); mimeType != "" {
		return mimeType
	}
	return defaultMimeType
}

// IsImage returns if the extension designates an image.
func IsImage(extension string) bool {
	return strings.HasPrefix(MimeType(extension), "image/")
}
