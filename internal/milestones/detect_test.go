package milestones

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solace/solace-backend/internal/models"
)

var detectBase = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

func userEntry(id, content string, at time.Time) models.TranscriptEntry {
	return models.TranscriptEntry{
		ID:        id,
		Timestamp: at,
		Speaker:   models.SpeakerUser,
		Content:   content,
	}
}

func aiEntry(id, content string, at time.Time) models.TranscriptEntry {
	return models.TranscriptEntry{
		ID:        id,
		Timestamp: at,
		Speaker:   models.SpeakerAI,
		Content:   content,
	}
}

func TestDetect_EmptyTranscript(t *testing.T) {
	assert.Empty(t, Detect(nil))
	assert.Empty(t, Detect([]models.TranscriptEntry{}))
}

func TestDetect_IgnoresAISpeech(t *testing.T) {
	transcript := []models.TranscriptEntry{
		aiEntry("a1", "I feel a real breakthrough happening for you", detectBase),
		aiEntry("a2", "You should breathe and worry less about anxiety", detectBase.Add(10*time.Second)),
	}

	assert.Empty(t, Detect(transcript))
}

func TestDetect_EmotionalBreakthrough(t *testing.T) {
	transcript := []models.TranscriptEntry{
		userEntry("u1", "I feel a real breakthrough today", detectBase),
	}

	detected := Detect(transcript)
	require.Len(t, detected, 1)

	m := detected[0]
	assert.Equal(t, models.CategoryEmotionalBreakthrough, m.Category)
	assert.Equal(t, "u1-emotional_breakthrough", m.ID)
	assert.Equal(t, "🌟 Emotional Breakthrough", m.Title)
	assert.Equal(t, "A moment of emotional insight or breakthrough", m.Description)
	assert.Equal(t, detectBase, m.AchievedAt)
	// 2 of 7 keywords matched: above the trigger threshold, below medium.
	assert.Equal(t, models.SeverityLow, m.Severity)
}

func TestDetect_BelowTriggerThreshold(t *testing.T) {
	// A single keyword of a seven-phrase category is a ratio of ~0.14.
	transcript := []models.TranscriptEntry{
		userEntry("u1", "my goal is unclear", detectBase),
	}

	assert.Empty(t, Detect(transcript))
}

func TestDetect_SortedByAchievedAtDescending(t *testing.T) {
	transcript := []models.TranscriptEntry{
		userEntry("u1", "I feel like this is a breakthrough", detectBase),
		userEntry("u2", "I want to change and my goal is to keep going", detectBase.Add(2*time.Minute)),
		userEntry("u3", "There is less stress now, I am relieved", detectBase.Add(4*time.Minute)),
	}

	detected := Detect(transcript)
	require.Len(t, detected, 3)

	for i := 1; i < len(detected); i++ {
		assert.False(t, detected[i].AchievedAt.After(detected[i-1].AchievedAt),
			"achieved-at must be non-increasing")
	}
	assert.Equal(t, models.CategoryStressRelief, detected[0].Category)
	assert.Equal(t, models.CategoryGoalSetting, detected[1].Category)
	assert.Equal(t, models.CategoryEmotionalBreakthrough, detected[2].Category)
}

func TestDetect_Idempotent(t *testing.T) {
	transcript := []models.TranscriptEntry{
		userEntry("u1", "I feel a breakthrough and I want to reach my goal", detectBase),
		userEntry("u2", "I notice I tend to avoid conflict", detectBase.Add(time.Minute)),
	}

	first := Detect(transcript)
	second := Detect(transcript)
	assert.Equal(t, first, second)
}

func TestDetect_SuppressesRepeatsWithinWindow(t *testing.T) {
	transcript := []models.TranscriptEntry{
		userEntry("u1", "I feel a real breakthrough today", detectBase),
		userEntry("u2", "I feel another breakthrough already", detectBase.Add(10*time.Second)),
	}

	detected := Detect(transcript)
	require.Len(t, detected, 1)
	// The earlier-accepted milestone survives; the later match is dropped.
	assert.Equal(t, detectBase, detected[0].AchievedAt)
	assert.Equal(t, "u1-emotional_breakthrough", detected[0].ID)
}

func TestDetect_AcceptsRepeatsOutsideWindow(t *testing.T) {
	transcript := []models.TranscriptEntry{
		userEntry("u1", "I feel a real breakthrough today", detectBase),
		userEntry("u2", "I feel one more breakthrough", detectBase.Add(60*time.Second)),
	}

	detected := Detect(transcript)
	assert.Len(t, detected, 2)
}

func TestDetect_MultipleCategoriesFromOneEntry(t *testing.T) {
	transcript := []models.TranscriptEntry{
		userEntry("u1", "I feel a breakthrough and I want to work on my goal", detectBase),
	}

	detected := Detect(transcript)
	require.Len(t, detected, 2)

	categories := []models.MilestoneCategory{detected[0].Category, detected[1].Category}
	assert.Contains(t, categories, models.CategoryEmotionalBreakthrough)
	assert.Contains(t, categories, models.CategoryGoalSetting)
}

func TestSeverityFor(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		expected   models.Severity
	}{
		{"well below medium", 0.25, models.SeverityLow},
		{"exactly 0.4 stays low", 0.4, models.SeverityLow},
		{"just above 0.4 is medium", 0.41, models.SeverityMedium},
		{"exactly 0.7 stays medium", 0.7, models.SeverityMedium},
		{"just above 0.7 is high", 0.71, models.SeverityHigh},
		{"full confidence", 1.0, models.SeverityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SeverityFor(tt.confidence))
		})
	}
}
