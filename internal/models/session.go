package models

import (
	"time"
)

// Speaker identifies who produced a transcript entry.
type Speaker string

const (
	SpeakerUser Speaker = "user"
	SpeakerAI   Speaker = "ai"
)

// Severity buckets how strongly a milestone was signalled.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// MilestoneCategory is one of the ten fixed progress signal types.
type MilestoneCategory string

const (
	CategoryEmotionalBreakthrough    MilestoneCategory = "emotional_breakthrough"
	CategorySelfAwareness            MilestoneCategory = "self_awareness"
	CategoryCopingStrategy           MilestoneCategory = "coping_strategy"
	CategoryGoalSetting              MilestoneCategory = "goal_setting"
	CategoryAnxietyManagement        MilestoneCategory = "anxiety_management"
	CategoryCommunicationImprovement MilestoneCategory = "communication_improvement"
	CategoryConfidenceBuilding       MilestoneCategory = "confidence_building"
	CategoryRelationshipInsight      MilestoneCategory = "relationship_insight"
	CategoryStressRelief             MilestoneCategory = "stress_relief"
	CategoryMindfulnessPractice      MilestoneCategory = "mindfulness_practice"
)

// TranscriptEntry is a single speech turn. Entries are ordered by arrival,
// not by timestamp: AI turns grow incrementally from streamed fragments
// while user turns arrive already finalized.
type TranscriptEntry struct {
	ID        string    `json:"id" db:"id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	Speaker   Speaker   `json:"speaker" db:"speaker"`
	Content   string    `json:"content" db:"content"`
}

// Milestone is a detected progress signal. The ID is derived from the
// triggering transcript entry and the category, so re-running detection
// over the same transcript produces the same IDs.
type Milestone struct {
	ID          string            `json:"id"`
	Category    MilestoneCategory `json:"category"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	AchievedAt  time.Time         `json:"achieved_at"`
	Severity    Severity          `json:"severity"`
}

// ProgressCard is a presentation record derived 1:1 from a milestone.
type ProgressCard struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Milestone   Milestone `json:"milestone"`
	CreatedAt   time.Time `json:"created_at"`
	Color       string    `json:"color"`
	Icon        string    `json:"icon"`
}

// Session is one voice conversation. It is mutated only by the session
// orchestrator while live and finalized exactly once at disconnect;
// after that it is immutable.
type Session struct {
	ID            string            `json:"id"`
	StartTime     time.Time         `json:"start_time"`
	EndTime       *time.Time        `json:"end_time,omitempty"`
	Duration      time.Duration     `json:"duration,omitempty"`
	Transcript    []TranscriptEntry `json:"transcript"`
	Milestones    []Milestone       `json:"milestones"`
	ProgressCards []ProgressCard    `json:"progress_cards"`
	Summary       string            `json:"summary,omitempty"`
}

// AssessmentData is the optional onboarding questionnaire result used to
// personalize the AI's instructions. The core treats it as input only.
type AssessmentData struct {
	CurrentMood        int      `json:"current_mood"`
	StressLevel        int      `json:"stress_level"`
	PrimaryGoals       []string `json:"primary_goals"`
	PreviousTherapy    string   `json:"previous_therapy"`
	CommunicationStyle string   `json:"communication_style"`
	SpecificConcerns   []string `json:"specific_concerns"`
}
