package util

import "strings"

// IsImageContentType: "image/*" (регистр и параметры не важны).
func IsImageContentType(ct string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(ct)), "image/")
}

// MimeForFormat переводит имя формата из image.Decode в MIME.
func MimeForFormat(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	case "gif":
		return "image/gif"
	case "bmp":
		return "image/bmp"
	case "tiff":
		return "image/tiff"
	}
	return "application/octet-stream"
}

// ProviderAcceptsMime: форматы, которые Gemini принимает как inline blob без перекодирования.
func ProviderAcceptsMime(mime string) bool {
	switch mime {
	case "image/jpeg", "image/png", "image/webp":
		return true
	}
	return false
}
