// Package imageutil turns user-supplied image payloads into typed binary
// parts the pipeline can carry. All shape and validity questions are
// answered here, once, at the request boundary.
package imageutil

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/draw"

	"github.com/SumitPatel-HQ/fixit/internal/model"
)

const (
	// MinDimension is the smallest usable width or height in pixels.
	MinDimension = 50
	// MaxDimension is the largest width or height sent upstream. Bigger
	// images are downscaled first so they do not cost more than they need to.
	MaxDimension = 1024

	jpegQuality = 85
)

// Decoded is a validated image ready to enter the pipeline.
type Decoded struct {
	Part *model.BinaryPart
	// Downscaled is set when the payload exceeded MaxDimension and was
	// resized. Part carries the resized dimensions and bytes.
	Downscaled bool
}

// Decode parses a base64 image payload, with or without a data-URL prefix,
// validates its dimensions, and downscales anything above MaxDimension. The
// returned error messages are safe to show to end users.
func Decode(payload string) (*Decoded, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, fmt.Errorf("empty image payload")
	}

	mime := "image/jpeg"
	if strings.HasPrefix(payload, "data:") {
		head, rest, ok := strings.Cut(payload, ",")
		if !ok {
			return nil, fmt.Errorf("malformed data URL")
		}
		if m := strings.TrimSuffix(strings.TrimPrefix(head, "data:"), ";base64"); m != "" {
			mime = m
		}
		payload = rest
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some clients send URL-safe base64.
		raw, err = base64.URLEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 image data")
		}
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("unsupported or corrupt image format")
	}
	switch format {
	case "jpeg":
		mime = "image/jpeg"
	case "png":
		mime = "image/png"
	}

	if cfg.Width < MinDimension || cfg.Height < MinDimension {
		return nil, fmt.Errorf("image too small: %dx%d, need at least %dx%d",
			cfg.Width, cfg.Height, MinDimension, MinDimension)
	}

	part := &model.BinaryPart{
		MIME:   mime,
		Width:  cfg.Width,
		Height: cfg.Height,
		Data:   raw,
	}
	downscaled := false
	if cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		if err := downscale(part); err != nil {
			return nil, fmt.Errorf("could not process oversized image")
		}
		downscaled = true
	}

	return &Decoded{Part: part, Downscaled: downscaled}, nil
}

// downscale resizes part in place so the longer edge equals MaxDimension,
// preserving aspect ratio and format.
func downscale(part *model.BinaryPart) error {
	src, _, err := image.Decode(bytes.NewReader(part.Data))
	if err != nil {
		return err
	}

	w, h := part.Width, part.Height
	if w >= h {
		h = h * MaxDimension / w
		w = MaxDimension
	} else {
		w = w * MaxDimension / h
		h = MaxDimension
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	switch part.MIME {
	case "image/png":
		err = png.Encode(&buf, dst)
	default:
		part.MIME = "image/jpeg"
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return err
	}

	part.Width = w
	part.Height = h
	part.Data = buf.Bytes()
	return nil
}
