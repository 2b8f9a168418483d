package milestones

import (
	"fmt"
	"strings"
	"time"

	"github.com/solace/solace-backend/internal/models"
)

// BuildCards turns accepted milestones into presentation-ready progress
// cards, one per milestone, preserving the detection order. CreatedAt is
// stamped with the wall-clock time of generation, which is distinct from
// the milestone's achieved-at time.
func BuildCards(sessionID string, milestones []models.Milestone) []models.ProgressCard {
	now := time.Now()
	cards := make([]models.ProgressCard, 0, len(milestones))
	for _, m := range milestones {
		style := StyleFor(m.Category)
		cards = append(cards, models.ProgressCard{
			ID:          "card-" + m.ID,
			SessionID:   sessionID,
			Title:       m.Title,
			Description: m.Description,
			Milestone:   m,
			CreatedAt:   now,
			Color:       style.Color,
			Icon:        style.Icon,
		})
	}
	return cards
}

// Summarize produces the free-text progress blurb shown after a session.
// The branch thresholds (zero milestones, one distinct category, up to
// three, more than three) are relied on by the UI copy.
func Summarize(milestones []models.Milestone) string {
	if len(milestones) == 0 {
		return "You showed up for yourself today - that's a meaningful step forward."
	}

	seen := make(map[models.MilestoneCategory]bool)
	var categories []models.MilestoneCategory
	for _, m := range milestones {
		if !seen[m.Category] {
			seen[m.Category] = true
			categories = append(categories, m.Category)
		}
	}

	if len(categories) == 1 {
		return fmt.Sprintf("Great progress with %s. Keep building on this insight.",
			strings.ToLower(Title(categories[0])))
	}

	if len(categories) <= 3 {
		areas := make([]string, len(categories))
		for i, c := range categories {
			areas[i] = strings.ToLower(Title(c))
		}
		return fmt.Sprintf("Wonderful session! You made progress in: %s.", strings.Join(areas, ", "))
	}

	return fmt.Sprintf("Incredible session! You achieved %d milestones across multiple areas of personal growth.",
		len(milestones))
}
