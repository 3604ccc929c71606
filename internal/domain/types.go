package domain

import (
	"mime"
	"path"
	"strings"
)

// MediaKind is the coarse media family of a content type
type MediaKind string

const (
	MediaKindImage    MediaKind = "image"
	MediaKindVideo    MediaKind = "video"
	MediaKindAudio    MediaKind = "audio"
	MediaKindDocument MediaKind = "document"
	MediaKindOther    MediaKind = "other"
)

const (
	MimeOctetStream = "application/octet-stream"
	MimeSVG         = "image/svg+xml"
	MimeMP4         = "video/mp4"
	MimeJPEG        = "image/jpeg"
)

// extensionTypes maps lower-case file extensions to their served MIME type
var extensionTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  MimeSVG,
	"pdf":  "application/pdf",
	"mp4":  MimeMP4,
	"webm": "video/webm",
	"mov":  "video/quicktime",
	"txt":  "text/plain",
	"json": "application/json",
	"html": "text/html",
	"css":  "text/css",
	"js":   "application/javascript",
	"zip":  "application/zip",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
}

// ClassifyByExtension returns the MIME type implied by the extension of an object key or file name.
// Unknown or missing extensions yield application/octet-stream.
func ClassifyByExtension(key string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(key)), ".")
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	return MimeOctetStream
}

// KindOfContentType returns the media family of a MIME type
func KindOfContentType(contentType string) MediaKind {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return MediaKindImage
	case strings.HasPrefix(ct, "video/"):
		return MediaKindVideo
	case strings.HasPrefix(ct, "audio/"):
		return MediaKindAudio
	case strings.HasPrefix(ct, "text/"), ct == "application/pdf", ct == "application/json":
		return MediaKindDocument
	default:
		return MediaKindOther
	}
}

// IsTimeBased reports whether the content type is video or audio
func IsTimeBased(contentType string) bool {
	k := KindOfContentType(contentType)
	return k == MediaKindVideo || k == MediaKindAudio
}

// IsGenericContentType reports whether a store-reported type carries no information
func IsGenericContentType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	return ct == "" || ct == MimeOctetStream || ct == "binary/octet-stream"
}

// BaseMediaType returns the lower-case media type of a Content-Type value, without parameters
func BaseMediaType(contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	ct, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}

// IsSVG reports whether the object is an SVG by its served type or its key
func IsSVG(contentType, key string) bool {
	return BaseMediaType(contentType) == MimeSVG || ClassifyByExtension(key) == MimeSVG
}

// EffectiveContentType prefers the store-reported type unless it is generic
func EffectiveContentType(reported, key string) string {
	if IsGenericContentType(reported) {
		return ClassifyByExtension(key)
	}
	return reported
}

// IsDirectoryMarker reports whether the key is a directory placeholder
func IsDirectoryMarker(key string) bool {
	return strings.HasSuffix(key, "/")
}

// FileNameOf returns the last path segment of an object key
func FileNameOf(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

// FolderOf returns all but the last path segment of an object key, or "" for the root
func FolderOf(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[:i]
	}
	return ""
}

// TitleOf returns the file name without its extension
func TitleOf(fileName string) string {
	ext := path.Ext(fileName)
	if ext == fileName {
		return fileName
	}
	return strings.TrimSuffix(fileName, ext)
}

// JoinKey joins a folder and file name into an object key
func JoinKey(folder, fileName string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return fileName
	}
	return folder + "/" + fileName
}
