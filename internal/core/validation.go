package core

import (
	"bytes"
	"fmt"
	"image"
	"net/http"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/srwiley/oksvg"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// detectContentType validates that data is a decodable image and returns its
// MIME type. SVG documents are accepted when oksvg can parse them.
func detectContentType(data []byte, declared string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("file is empty")
	}

	if isSVGData(data) || strings.EqualFold(declared, "image/svg+xml") {
		if _, err := oksvg.ReadIconStream(bytes.NewReader(data)); err != nil {
			return "", fmt.Errorf("invalid SVG: %w", err)
		}
		return "image/svg+xml", nil
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("not a supported image: %w", err)
	}
	switch format {
	case "jpeg", "png", "gif", "bmp", "tiff", "webp":
		return "image/" + format, nil
	default:
		return http.DetectContentType(data), nil
	}
}

// isSVGData performs a lightweight detection of SVG content from raw bytes.
func isSVGData(data []byte) bool {
	n := len(data)
	if n > 4096 {
		n = 4096
	}
	header := bytes.ToLower(bytes.TrimSpace(data[:n]))
	return bytes.HasPrefix(header, []byte("<svg")) ||
		bytes.Contains(header, []byte("<svg")) ||
		bytes.Contains(header, []byte("xmlns=\"http://www.w3.org/2000/svg\""))
}
