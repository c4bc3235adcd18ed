package web

import "embed"

// Paths into the embedded file systems.
const (
	ArchivePages = "templates/archive/*.html"
	ReportPages  = "templates/reports/*.html"
	// ArchiveAssets is the directory of Static copied verbatim.
	ArchiveAssets = "static/archive"
)

// Templates holds the archive page and report templates.
//
//go:embed templates/archive/*.html templates/reports/*.html
var Templates embed.FS

// Static holds the assets copied into every archive.
//
//go:embed static/archive
var Static embed.FS
