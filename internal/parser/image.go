package parser

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"study-assistant/internal/apperrors"
)

var imageMIMETypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// Image is a validated diagram upload.
type Image struct {
	Name   string
	MIME   string
	Width  int
	Height int
	Data   []byte
}

// LoadImage checks the extension and that the bytes decode as that format.
func LoadImage(filename string, data []byte) (*Image, error) {
	mime, ok := imageMIMETypes[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return nil, apperrors.UnsupportedFormat("", nil)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.InvalidInput("decode image", fmt.Errorf("%s: %w", filename, err))
	}
	if "image/"+format != mime {
		mime = "image/" + format
	}

	return &Image{
		Name:   filename,
		MIME:   mime,
		Width:  cfg.Width,
		Height: cfg.Height,
		Data:   data,
	}, nil
}
