package compositor

import (
	"context"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Raster geometry of the overlay in pixels
const (
	Margin        = 32
	LogoMaxWidth  = 150
	LogoMaxHeight = 96
	CaptionGap    = 8
)

// Render rasterizes layout. Images are resolved by loader; a logo that cannot
// be loaded fails the render.
func Render(ctx context.Context, layout *Layout, loader Loader) (*image.NRGBA, error) {
	base, err := loader.Load(ctx, layout.BaseURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load base image")
	}

	var logo image.Image
	if layout.Overlay.Logo != nil {
		logo, err = loader.Load(ctx, layout.Overlay.Logo.URL)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load logo", goerr.V("source", layout.Overlay.Logo.Source))
		}
	}

	return Draw(base, logo, &layout.Overlay), nil
}

// Draw composites the overlay with an already loaded logo (nil for none) onto a copy of base
func Draw(base, logo image.Image, overlay *Overlay) *image.NRGBA {
	dst := imaging.Clone(base)
	if logo == nil && overlay.Caption == "" {
		return dst
	}

	layer := overlayImage(logo, overlay)
	bounds := dst.Bounds()
	lw, lh := layer.Bounds().Dx(), layer.Bounds().Dy()

	x := bounds.Min.X + Margin
	if overlay.Anchor != AnchorBottomLeft {
		x = bounds.Max.X - Margin - lw
	}
	y := bounds.Max.Y - Margin - lh

	return imaging.Overlay(dst, layer, image.Pt(x, y), overlay.Opacity)
}

func overlayImage(logo image.Image, overlay *Overlay) *image.NRGBA {
	var fitted *image.NRGBA
	if logo != nil {
		fitted = imaging.Fit(logo, LogoMaxWidth, LogoMaxHeight, imaging.Lanczos)
	}

	var caption *image.NRGBA
	if overlay.Caption != "" {
		caption = captionImage(overlay.Caption)
	}

	width, height := 0, 0
	for _, img := range []*image.NRGBA{fitted, caption} {
		if img == nil {
			continue
		}
		width = max(width, img.Bounds().Dx())
		height += img.Bounds().Dy()
	}
	if fitted != nil && caption != nil {
		height += CaptionGap
	}

	layer := imaging.New(width, height, color.Transparent)
	y := 0
	for _, img := range []*image.NRGBA{fitted, caption} {
		if img == nil {
			continue
		}
		x := 0
		if overlay.Align == AlignRight {
			x = width - img.Bounds().Dx()
		}
		layer = imaging.Paste(layer, img, image.Pt(x, y))
		y += img.Bounds().Dy() + CaptionGap
	}

	return layer
}

// captionImage draws white text with a one pixel drop shadow
func captionImage(text string) *image.NRGBA {
	face := basicfont.Face7x13
	metrics := face.Metrics()
	width := font.MeasureString(face, text).Ceil() + 1
	height := metrics.Height.Ceil() + 1

	img := imaging.New(width, height, color.Transparent)
	drawer := &font.Drawer{Dst: img, Face: face}

	for _, pass := range []struct {
		offset int
		color  color.Color
	}{
		{1, color.Black},
		{0, color.White},
	} {
		drawer.Src = image.NewUniform(pass.color)
		drawer.Dot = fixed.P(pass.offset, metrics.Ascent.Ceil()+pass.offset)
		drawer.DrawString(text)
	}

	return img
}
