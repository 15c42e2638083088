package compositor

import (
	"github.com/m-mizutani/alchemy/pkg/model"
)

type Anchor string

const (
	AnchorBottomLeft  Anchor = "bottom-left"
	AnchorBottomRight Anchor = "bottom-right"
)

type Align string

const (
	AlignLeft  Align = "left"
	AlignRight Align = "right"
)

// LogoLayer is the logo graphic of the overlay. URL is either a remote URL or a
// transient data URL of a file that has not been uploaded yet.
type LogoLayer struct {
	Source model.LogoSourceKind `json:"-"`
	URL    string               `json:"url"`
}

// Overlay is stacked vertically: logo first, caption below
type Overlay struct {
	Anchor  Anchor     `json:"anchor"`
	Align   Align      `json:"align"`
	Opacity float64    `json:"opacity"`
	Logo    *LogoLayer `json:"logo,omitempty"`
	Caption string     `json:"caption,omitempty"`
}

// Empty reports whether the overlay has nothing to draw
func (o *Overlay) Empty() bool {
	return o.Logo == nil && o.Caption == ""
}

// Layout is the composited visual: the base image at full bounds and one overlay
type Layout struct {
	BaseURL string  `json:"baseUrl"`
	Overlay Overlay `json:"overlay"`
}

// Compose builds the layout of baseURL branded with cfg. It performs no I/O.
func Compose(baseURL string, cfg model.BrandingConfig) *Layout {
	cfg = cfg.Normalize()

	overlay := Overlay{
		Anchor:  AnchorBottomRight,
		Align:   AlignRight,
		Opacity: float64(cfg.Opacity) / 100,
		Caption: cfg.Caption,
	}
	if cfg.Position == model.LogoPositionBottomLeft {
		overlay.Anchor = AnchorBottomLeft
		overlay.Align = AlignLeft
	}

	switch src := cfg.Logo(); src.Kind {
	case model.LogoSourceLocal:
		overlay.Logo = &LogoLayer{Source: src.Kind, URL: src.File.DataURL()}
	case model.LogoSourceRemote:
		overlay.Logo = &LogoLayer{Source: src.Kind, URL: src.URL}
	}

	return &Layout{
		BaseURL: baseURL,
		Overlay: overlay,
	}
}
