package frontend

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

//go:embed views/*
var assetsFS embed.FS

const (
	viewsPattern = "views/*.html"
	iconPath     = "views/icon.svg"
	iconPNGSize  = 192
)

var (
	iconOnce  sync.Once
	iconPNG   []byte
	iconError error
)

// renderIconPNG rasterizes the embedded heart once and reuses the result
func renderIconPNG(size int) ([]byte, error) {
	iconOnce.Do(func() {
		svgData, err := assetsFS.ReadFile(iconPath)
		if err != nil {
			iconError = fmt.Errorf("failed to read icon: %w", err)
			return
		}
		iconPNG, iconError = renderSVGToPNG(svgData, size, size)
	})
	return iconPNG, iconError
}

// renderSVGToPNG renders an SVG onto a transparent canvas of the given size
func renderSVGToPNG(svgData []byte, targetW, targetH int) ([]byte, error) {
	if targetW <= 0 || targetH <= 0 {
		return nil, fmt.Errorf("invalid target dimensions for SVG rendering: %dx%d", targetW, targetH)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}
	icon.SetTarget(0, 0, float64(targetW), float64(targetH))

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(targetW, targetH, dst, dst.Bounds())
	dasher := rasterx.NewDasher(targetW, targetH, scanner)
	icon.Draw(dasher, 1.0)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode rendered SVG as PNG: %w", err)
	}
	return buf.Bytes(), nil
}
