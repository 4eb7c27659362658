package media

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"dbd/internal/models"
)

// ValidateImage checks an uploaded image payload against the current
// limits and returns the payload to store. The input is base64, with or
// without a data-URI prefix. SVG payloads come back sanitized; raster
// payloads come back unchanged.
func ValidateImage(payload string, settings *models.ImageSettings) (string, error) {
	b64 := payload
	if idx := strings.Index(b64, ";base64,"); idx >= 0 {
		b64 = b64[idx+len(";base64,"):]
	}

	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", models.ValidationError("image is not valid base64")
	}
	if len(data) > settings.MaxUploadSize {
		return "", models.ValidationError("image exceeds the %d byte upload limit", settings.MaxUploadSize)
	}

	if looksLikeSvg(data) {
		if !settings.AllowSvg {
			return "", models.ValidationError("svg uploads are disabled")
		}
		clean, err := SanitizeSvg(data)
		if err != nil {
			return "", err
		}
		return base64.StdEncoding.EncodeToString(clean), nil
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", models.ValidationError("unsupported image format")
	}
	if format != "jpeg" && format != "png" && format != "gif" {
		return "", models.ValidationError("unsupported image format %q", format)
	}
	if cfg.Width > settings.MaxWidth {
		return "", models.ValidationError("image wider than the %d pixel limit", settings.MaxWidth)
	}

	return b64, nil
}

func looksLikeSvg(data []byte) bool {
	head := bytes.TrimSpace(data)
	if len(head) > 512 {
		head = head[:512]
	}
	lower := bytes.ToLower(head)
	return bytes.HasPrefix(lower, []byte("<svg")) ||
		(bytes.HasPrefix(lower, []byte("<?xml")) && bytes.Contains(lower, []byte("<svg")))
}
