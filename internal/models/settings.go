package models

// ImageSettings controls image handling limits. Patched at runtime by
// admins, each field range-validated.
type ImageSettings struct {
	MaxUploadSize    int  `json:"max_upload_size" validate:"required|min:1024|max:33554432"`
	MaxProcessedSize int  `json:"max_processed_size" validate:"required|min:1024|max:33554432"`
	MaxWidth         int  `json:"max_width" validate:"required|min:16|max:8192"`
	JpegQuality      int  `json:"jpeg_quality" validate:"required|min:1|max:100"`
	AllowSvg         bool `json:"allow_svg"`
}

func DefaultImageSettings() *ImageSettings {
	return &ImageSettings{
		MaxUploadSize:    8 << 20,
		MaxProcessedSize: 2 << 20,
		MaxWidth:         1920,
		JpegQuality:      85,
		AllowSvg:         true,
	}
}
