package store

import (
	"time"

	"arcanearchives/pkg/domain"
)

// BookModel is the GORM model backing domain.Book.
type BookModel struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	Title        string `gorm:"not null"`
	Description  string `gorm:"type:text;not null"`
	Author       string `gorm:"not null;default:'Unknown'"`
	FileName     string `gorm:"not null;uniqueIndex"`
	OriginalName string `gorm:"not null"`
	FilePath     string `gorm:"not null"`
	FileSize     int64  `gorm:"not null"`
	FileType     string
	PageCount    int
	UploadDate   time.Time `gorm:"not null;index"`
	Category     string    `gorm:"type:varchar(16);not null;default:'other'"`
	IsPublic     bool      `gorm:"not null;default:true"`
}

// TableName keeps the collection name stable regardless of the struct name.
func (BookModel) TableName() string {
	return "books"
}

func bookToModel(b domain.Book) BookModel {
	return BookModel{
		ID:           b.ID,
		Title:        b.Title,
		Description:  b.Description,
		Author:       b.Author,
		FileName:     b.FileName,
		OriginalName: b.OriginalName,
		FilePath:     b.FilePath,
		FileSize:     b.FileSize,
		FileType:     b.FileType,
		PageCount:    b.PageCount,
		UploadDate:   b.UploadDate,
		Category:     string(b.Category),
		IsPublic:     b.IsPublic,
	}
}

func bookFromModel(m BookModel) domain.Book {
	author := m.Author
	if author == "" {
		author = domain.DefaultAuthor
	}
	return domain.Book{
		ID:           m.ID,
		Title:        m.Title,
		Description:  m.Description,
		Author:       author,
		FileName:     m.FileName,
		OriginalName: m.OriginalName,
		FilePath:     m.FilePath,
		FileSize:     m.FileSize,
		FileType:     m.FileType,
		PageCount:    m.PageCount,
		UploadDate:   m.UploadDate,
		Category:     domain.ParseCategory(m.Category),
		IsPublic:     m.IsPublic,
	}
}
