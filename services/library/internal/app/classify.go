package app

import (
	"slices"
	"strings"

	"arcanearchives/pkg/domain"
	"arcanearchives/pkg/storage"
)

var (
	imageExtensions        = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp"}
	downloadableExtensions = []string{".doc", ".docx", ".epub", ".zip", ".rar"}
)

// Display modes in priority order.
const (
	ModePDF      = "pdf"
	ModeText     = "text"
	ModeImage    = "image"
	ModeDownload = "download"
	ModeOther    = "other"
)

// Presentation tells the reader page how to show a book.
type Presentation struct {
	Extension      string
	IsPDF          bool
	IsText         bool
	IsImage        bool
	IsDownloadable bool
}

// Mode picks the single display path, PDF first.
func (p Presentation) Mode() string {
	switch {
	case p.IsPDF:
		return ModePDF
	case p.IsText:
		return ModeText
	case p.IsImage:
		return ModeImage
	case p.IsDownloadable:
		return ModeDownload
	default:
		return ModeOther
	}
}

// ResolveExtension returns the extension used for classification: the stored
// file type when present, otherwise the one derived from the original name.
func ResolveExtension(b domain.Book) string {
	if ext := strings.ToLower(strings.TrimSpace(b.FileType)); ext != "" {
		return ext
	}
	return storage.Ext(b.OriginalName)
}

// Classify derives the presentation flags for b. Besides the resolved
// extension it also looks at the original and stored names, because older
// records were saved with an empty or inconsistent file type.
func Classify(b domain.Book) Presentation {
	ext := ResolveExtension(b)
	original := strings.ToLower(b.OriginalName)
	return Presentation{
		Extension: ext,
		IsPDF: ext == ".pdf" ||
			strings.HasSuffix(original, ".pdf") ||
			strings.Contains(strings.ToLower(b.FileName), ".pdf"),
		IsText:         ext == ".txt" || strings.HasSuffix(original, ".txt"),
		IsImage:        slices.Contains(imageExtensions, ext) || slices.Contains(imageExtensions, storage.Ext(original)),
		IsDownloadable: slices.Contains(downloadableExtensions, ext),
	}
}
