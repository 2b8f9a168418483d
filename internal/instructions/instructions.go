// Package instructions assembles the system instruction string sent to
// the realtime provider from a personality preset, optional assessment
// context and optional free-text additions. The orchestrator treats the
// result as an opaque string.
package instructions

import (
	"fmt"
	"strings"

	"github.com/solace/solace-backend/internal/models"
)

// Preset selects the AI counterpart's personality.
type Preset string

const (
	PresetCompassionate Preset = "compassionate"
	PresetAnalytical    Preset = "analytical"
	PresetMindful       Preset = "mindful"
	PresetMotivational  Preset = "motivational"
	PresetCognitive     Preset = "cognitive"
)

var presetInstructions = map[Preset]string{
	PresetCompassionate: "You are a warm, compassionate AI therapist who speaks with gentle kindness and deep empathy. Create a safe, judgment-free space and use comforting language.",
	PresetAnalytical:    "You are a structured, analytical AI therapist who helps clients understand their thoughts systematically. Break down problems and provide clear guidance.",
	PresetMindful:       "You are a mindfulness-focused AI therapist who emphasizes present-moment awareness. Guide users toward mindfulness and introduce grounding techniques.",
	PresetMotivational:  "You are an energetic, motivational AI therapist who inspires action. Be encouraging, focus on strengths, and celebrate progress.",
	PresetCognitive:     "You are a CBT-focused AI therapist who helps identify thought patterns. Explore connections between thoughts, feelings, and behaviors.",
}

const groundRules = `

Always:
- Keep responses conversational and natural (1-3 sentences typically)
- Listen actively and ask thoughtful follow-up questions
- Respond with empathy and understanding
- Help users explore their thoughts and emotions
- Provide practical coping strategies when appropriate
- Maintain appropriate therapeutic boundaries`

// Config carries everything instruction assembly needs. It is resolved
// by the caller; nothing here is read from ambient state.
type Config struct {
	Preset     Preset
	Assessment *models.AssessmentData
	Custom     string
}

// Compose builds the full instruction string. Unknown presets fall back
// to the compassionate preset.
func Compose(cfg Config) string {
	base, ok := presetInstructions[cfg.Preset]
	if !ok {
		base = presetInstructions[PresetCompassionate]
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteString(groundRules)

	if cfg.Assessment != nil {
		a := cfg.Assessment
		b.WriteString("\n\nUser Context (use this to personalize your approach):")
		b.WriteString(fmt.Sprintf("\n- Current mood level: %d/10", a.CurrentMood))
		b.WriteString(fmt.Sprintf("\n- Stress level: %d/10", a.StressLevel))
		b.WriteString(fmt.Sprintf("\n- Primary goals: %s", orDefault(strings.Join(a.PrimaryGoals, ", "), "Not specified")))
		b.WriteString(fmt.Sprintf("\n- Therapy experience: %s", orDefault(a.PreviousTherapy, "Not specified")))
		b.WriteString(fmt.Sprintf("\n- Communication preference: %s", orDefault(a.CommunicationStyle, "Not specified")))
		b.WriteString(fmt.Sprintf("\n- Specific concerns: %s", orDefault(strings.Join(a.SpecificConcerns, ", "), "None specified")))
		b.WriteString("\n\nAdjust your tone and approach based on their mood and stress levels. Focus on their stated goals and be mindful of their therapy experience level.")
	}

	if cfg.Custom != "" {
		b.WriteString("\n\nAdditional personalized instructions:\n")
		b.WriteString(cfg.Custom)
	}

	return b.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
