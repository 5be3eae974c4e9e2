package domain

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryAlchemy   Category = "alchemy"
	CategoryHermetic  Category = "hermetic"
	CategoryQabalah   Category = "qabalah"
	CategorySocieties Category = "societies"
	CategoryOther     Category = "other"
)

// Categories lists the accepted categories in display order.
var Categories = []Category{
	CategoryAlchemy,
	CategoryHermetic,
	CategoryQabalah,
	CategorySocieties,
	CategoryOther,
}

// ParseCategory maps free-form input onto the fixed category set.
// Blank or unknown values fall back to CategoryOther.
func ParseCategory(value string) Category {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, c := range Categories {
		if string(c) == value {
			return c
		}
	}
	return CategoryOther
}

const (
	// DefaultAuthor is what a stored record without an author reads as.
	DefaultAuthor = "Unknown"
	// UploadAuthor is substituted when an upload leaves the author blank.
	UploadAuthor = "Unknown Author"
)

// Book is the persisted metadata for one uploaded document.
type Book struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Author       string    `json:"author"`
	FileName     string    `json:"fileName"`
	OriginalName string    `json:"originalName"`
	FilePath     string    `json:"filePath"`
	FileSize     int64     `json:"fileSize"`
	FileType     string    `json:"fileType,omitempty"`
	PageCount    int       `json:"pageCount,omitempty"`
	UploadDate   time.Time `json:"uploadDate"`
	Category     Category  `json:"category"`
	IsPublic     bool      `json:"isPublic"`
}

// Legend is a fixed reference entry shown on the library page.
type Legend struct {
	Title       string
	Description string
	Author      string
	Category    Category
	SearchTerms []string
}

// LegendStatus annotates a Legend with whether a matching book was uploaded.
type LegendStatus struct {
	Legend
	IsUploaded     bool
	UploadedBookID string
}
