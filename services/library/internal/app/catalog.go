package app

import (
	"strings"

	"arcanearchives/pkg/domain"
)

// MatchLegends marks each legend as uploaded when some book title contains
// one of its search terms. books are scanned in order and the first match
// supplies UploadedBookID.
func MatchLegends(legends []domain.Legend, books []domain.Book) []domain.LegendStatus {
	titles := make([]string, len(books))
	for i, b := range books {
		titles[i] = strings.ToLower(b.Title)
	}
	out := make([]domain.LegendStatus, 0, len(legends))
	for _, legend := range legends {
		status := domain.LegendStatus{Legend: legend}
		for i, title := range titles {
			if titleMatches(title, legend.SearchTerms) {
				status.IsUploaded = true
				status.UploadedBookID = books[i].ID
				break
			}
		}
		out = append(out, status)
	}
	return out
}

func titleMatches(title string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(title, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
