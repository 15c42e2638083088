package model

import (
	"encoding/base64"
)

type LogoPosition string

const (
	LogoPositionBottomLeft  LogoPosition = "BottomLeft"
	LogoPositionBottomRight LogoPosition = "BottomRight"
)

const (
	DefaultOpacity = 80
	MinOpacity     = 10
	MaxOpacity     = 100
)

// Normalize maps any value other than BottomLeft to BottomRight
func (p LogoPosition) Normalize() LogoPosition {
	if p == LogoPositionBottomLeft {
		return LogoPositionBottomLeft
	}
	return LogoPositionBottomRight
}

// ParseLogoPosition accepts the stored enum values and the short forms "left" and "right"
func ParseLogoPosition(s string) LogoPosition {
	switch s {
	case "left", "bottom-left", string(LogoPositionBottomLeft):
		return LogoPositionBottomLeft
	default:
		return LogoPositionBottomRight
	}
}

// ClampOpacity restricts an opacity percentage to [MinOpacity, MaxOpacity]
func ClampOpacity(v int) int {
	if v < MinOpacity {
		return MinOpacity
	}
	if v > MaxOpacity {
		return MaxOpacity
	}
	return v
}

// LocalFile is a file picked on this machine that has not been uploaded yet.
// It never leaves the process: only the URL obtained by uploading it is persisted.
type LocalFile struct {
	Name     string
	Data     []byte
	MIMEType string
}

// DataURL returns a transient in-memory reference to the file
func (f *LocalFile) DataURL() string {
	mimeType := f.MIMEType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}

type LogoSourceKind int

const (
	LogoSourceNone LogoSourceKind = iota
	LogoSourceLocal
	LogoSourceRemote
)

func (k LogoSourceKind) String() string {
	switch k {
	case LogoSourceLocal:
		return "local"
	case LogoSourceRemote:
		return "remote"
	default:
		return "none"
	}
}

// LogoSource is the logo that is authoritative at render time
type LogoSource struct {
	Kind LogoSourceKind
	File *LocalFile
	URL  string
}

// BrandingConfig describes the watermark overlay applied to generated images.
// Opacity is a percentage; zero means unset.
type BrandingConfig struct {
	LogoFile *LocalFile
	LogoURL  string
	Caption  string
	Position LogoPosition
	Opacity  int
}

// DefaultBranding returns the configuration used before anything is loaded
func DefaultBranding() BrandingConfig {
	return BrandingConfig{
		Position: LogoPositionBottomRight,
		Opacity:  DefaultOpacity,
	}
}

// Normalize fills defaults and clamps values. Every load, save and render goes through it.
func (b BrandingConfig) Normalize() BrandingConfig {
	b.Position = b.Position.Normalize()
	b.Opacity = b.OpacityPercent()
	return b
}

// OpacityPercent returns the effective opacity percentage
func (b BrandingConfig) OpacityPercent() int {
	if b.Opacity <= 0 {
		return DefaultOpacity
	}
	return ClampOpacity(b.Opacity)
}

// Logo resolves which logo to render: a pending local file wins over a stored URL
func (b BrandingConfig) Logo() LogoSource {
	if b.LogoFile != nil {
		return LogoSource{Kind: LogoSourceLocal, File: b.LogoFile}
	}
	if b.LogoURL != "" {
		return LogoSource{Kind: LogoSourceRemote, URL: b.LogoURL}
	}
	return LogoSource{Kind: LogoSourceNone}
}

// Record projects the persistable part of the configuration
func (b BrandingConfig) Record() *BrandingRecord {
	n := b.Normalize()
	rec := &BrandingRecord{
		URL:      n.Caption,
		Position: n.Position,
		Opacity:  n.Opacity,
	}
	if n.LogoURL != "" {
		logoURL := n.LogoURL
		rec.LogoURL = &logoURL
	}
	return rec
}

// BrandingFromRecord builds a full configuration from a persisted record. The
// local file is always nil because only URLs are persisted.
func BrandingFromRecord(rec *BrandingRecord) BrandingConfig {
	cfg := DefaultBranding()
	if rec == nil {
		return cfg
	}
	if rec.LogoURL != nil {
		cfg.LogoURL = *rec.LogoURL
	}
	cfg.Caption = rec.URL
	cfg.Position = rec.Position
	cfg.Opacity = rec.Opacity
	return cfg.Normalize()
}
