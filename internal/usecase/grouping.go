package usecase

import "voicejot/internal/domain"

// GroupNotes buckets notes by category, preserving the underlying
// most-recent-first order inside each bucket. Categories appear in the
// fixed priority order; categories missing from the priority list
// follow in first-encounter order, not alphabetized.
func GroupNotes(notes []domain.Note, priority []string) []domain.CategoryGroup {
	buckets := make(map[string][]domain.Note)
	var extras []string
	ranked := make(map[string]bool, len(priority))
	for _, category := range priority {
		ranked[category] = true
	}

	for _, note := range notes {
		if _, seen := buckets[note.Category]; !seen && !ranked[note.Category] {
			extras = append(extras, note.Category)
		}
		buckets[note.Category] = append(buckets[note.Category], note)
	}

	groups := make([]domain.CategoryGroup, 0, len(buckets))
	for _, category := range priority {
		if bucket, ok := buckets[category]; ok {
			groups = append(groups, domain.CategoryGroup{Category: category, Notes: bucket})
		}
	}
	for _, category := range extras {
		groups = append(groups, domain.CategoryGroup{Category: category, Notes: buckets[category]})
	}
	return groups
}
