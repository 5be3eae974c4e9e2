package app

import "arcanearchives/pkg/domain"

// LegendaryBooks is the fixed reference list shown on the library page.
var LegendaryBooks = []domain.Legend{
	{
		Title:       "Emerald Tablet",
		Description: "A foundational text of alchemy attributed to Hermes Trismegistus, containing the secret of the prima materia.",
		Author:      "Hermes Trismegistus",
		Category:    domain.CategoryAlchemy,
		SearchTerms: []string{"emerald", "tablet", "emerald tablet"},
	},
	{
		Title:       "Voynich Manuscript",
		Description: "An illustrated codex hand-written in an unknown writing system that has baffled cryptographers for centuries.",
		Author:      "Unknown",
		Category:    domain.CategoryOther,
		SearchTerms: []string{"voynich", "manuscript"},
	},
	{
		Title:       "Book of Thoth",
		Description: "A legendary book of ancient Egyptian magic said to contain spells that can control the forces of nature.",
		Author:      "Thoth",
		Category:    domain.CategoryHermetic,
		SearchTerms: []string{"thoth", "book of thoth"},
	},
	{
		Title:       "Picatrix",
		Description: "A medieval grimoire of astrological magic that blends Arabic, Greek, and Persian occult traditions.",
		Author:      "Unknown",
		Category:    domain.CategoryQabalah,
		SearchTerms: []string{"picatrix"},
	},
	{
		Title:       "Necronomicon",
		Description: "A fictional grimoire created by H.P. Lovecraft, said to contain forbidden knowledge about ancient deities and cosmic horrors.",
		Author:      "Abdul Alhazred",
		Category:    domain.CategoryOther,
		SearchTerms: []string{"necronomicon"},
	},
	{
		Title:       "Ripley Scroll",
		Description: "An alchemical manuscript depicting the process for creating the Philosopher's Stone through symbolic imagery.",
		Author:      "George Ripley",
		Category:    domain.CategoryAlchemy,
		SearchTerms: []string{"ripley", "scroll"},
	},
}
