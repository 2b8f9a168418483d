package milestones

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/solace/solace-backend/internal/models"
)

const (
	// triggerThreshold is the minimum keyword-match ratio for a category
	// to count as a milestone.
	triggerThreshold = 0.2

	// suppressionWindow collapses repeat detections of the same category:
	// once a milestone is accepted, later candidates of that category
	// within this window of its achieved-at time are dropped.
	suppressionWindow = 60 * time.Second
)

// Detect scans a transcript for progress milestones. Only user speech is
// mined; AI turns are ignored. The result is sorted by achieved-at
// descending (most recent first) and is deterministic for a given
// transcript: identical input always yields identical output.
func Detect(transcript []models.TranscriptEntry) []models.Milestone {
	var accepted []models.Milestone

	for _, entry := range transcript {
		if entry.Speaker != models.SpeakerUser {
			continue
		}
		content := strings.ToLower(entry.Content)

		for _, category := range Categories {
			pattern := patterns[category]
			matched := 0
			for _, keyword := range pattern.Keywords {
				if strings.Contains(content, keyword) {
					matched++
				}
			}
			if matched == 0 {
				continue
			}

			// Confidence is measured against the category's own keyword
			// list, so short lists saturate faster than long ones.
			confidence := float64(matched) / float64(len(pattern.Keywords))
			if confidence > 1 {
				confidence = 1
			}
			if confidence <= triggerThreshold {
				continue
			}

			candidate := models.Milestone{
				ID:          fmt.Sprintf("%s-%s", entry.ID, category),
				Category:    category,
				Title:       Title(category),
				Description: pattern.Description,
				AchievedAt:  entry.Timestamp,
				Severity:    SeverityFor(confidence),
			}

			if suppressed(accepted, candidate) {
				continue
			}
			accepted = append(accepted, candidate)
		}
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].AchievedAt.After(accepted[j].AchievedAt)
	})
	return accepted
}

// SeverityFor buckets a keyword-match confidence into a severity tier.
// Both boundaries are exclusive: exactly 0.7 is medium, exactly 0.4 is low.
func SeverityFor(confidence float64) models.Severity {
	switch {
	case confidence > 0.7:
		return models.SeverityHigh
	case confidence > 0.4:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}

// suppressed reports whether an already-accepted milestone of the same
// category sits within the suppression window of the candidate. This is
// a forward-only scan against accepted milestones, not a clustering pass.
func suppressed(accepted []models.Milestone, candidate models.Milestone) bool {
	for _, m := range accepted {
		if m.Category != candidate.Category {
			continue
		}
		gap := candidate.AchievedAt.Sub(m.AchievedAt)
		if gap < 0 {
			gap = -gap
		}
		if gap < suppressionWindow {
			return true
		}
	}
	return false
}
