package milestones

import (
	"github.com/solace/solace-backend/internal/models"
)

// Pattern maps a milestone category to its trigger phrases and the
// canonical description attached to detected milestones.
type Pattern struct {
	Keywords    []string
	Description string
}

// Style is the display record attached to a progress card.
type Style struct {
	Color string
	Icon  string
}

// Categories fixes the scan order. Detection iterates this slice rather
// than the pattern map so output is deterministic.
var Categories = []models.MilestoneCategory{
	models.CategoryEmotionalBreakthrough,
	models.CategorySelfAwareness,
	models.CategoryCopingStrategy,
	models.CategoryGoalSetting,
	models.CategoryAnxietyManagement,
	models.CategoryCommunicationImprovement,
	models.CategoryConfidenceBuilding,
	models.CategoryRelationshipInsight,
	models.CategoryStressRelief,
	models.CategoryMindfulnessPractice,
}

var patterns = map[models.MilestoneCategory]Pattern{
	models.CategoryEmotionalBreakthrough: {
		Keywords:    []string{"i feel", "i realize", "breakthrough", "clarity", "understand now", "lightbulb moment", "epiphany"},
		Description: "A moment of emotional insight or breakthrough",
	},
	models.CategorySelfAwareness: {
		Keywords:    []string{"i notice", "i tend to", "my pattern", "i usually", "i always", "about myself", "self-reflection"},
		Description: "Gained deeper self-awareness",
	},
	models.CategoryCopingStrategy: {
		Keywords:    []string{"i could try", "maybe i can", "strategy", "technique", "cope with", "manage", "handle this"},
		Description: "Identified or learned a new coping strategy",
	},
	models.CategoryGoalSetting: {
		Keywords:    []string{"i want to", "my goal", "i will", "i plan to", "i hope to", "objective", "target"},
		Description: "Set a meaningful goal for personal growth",
	},
	models.CategoryAnxietyManagement: {
		Keywords:    []string{"less anxious", "calm down", "breathe", "relaxed", "anxiety", "worry less", "peaceful"},
		Description: "Made progress managing anxiety",
	},
	models.CategoryCommunicationImprovement: {
		Keywords:    []string{"express myself", "communicate better", "tell them", "speak up", "voice my", "conversation"},
		Description: "Improved communication skills",
	},
	models.CategoryConfidenceBuilding: {
		Keywords:    []string{"i can do", "i am capable", "confident", "believe in myself", "i deserve", "proud of myself"},
		Description: "Built confidence and self-esteem",
	},
	models.CategoryRelationshipInsight: {
		Keywords:    []string{"relationship", "my partner", "friendship", "family", "connect with", "boundary", "support"},
		Description: "Gained insight into relationships",
	},
	models.CategoryStressRelief: {
		Keywords:    []string{"less stress", "pressure off", "relieved", "burden", "overwhelming", "manageable"},
		Description: "Found ways to reduce stress",
	},
	models.CategoryMindfulnessPractice: {
		Keywords:    []string{"present moment", "mindful", "aware", "meditation", "focus on now", "centered", "grounded"},
		Description: "Practiced mindfulness and being present",
	},
}

var titles = map[models.MilestoneCategory]string{
	models.CategoryEmotionalBreakthrough:    "🌟 Emotional Breakthrough",
	models.CategorySelfAwareness:            "🪞 Self-Awareness Moment",
	models.CategoryCopingStrategy:           "🛠️ New Coping Strategy",
	models.CategoryGoalSetting:              "🎯 Goal Setting",
	models.CategoryAnxietyManagement:        "😌 Anxiety Relief",
	models.CategoryCommunicationImprovement: "💬 Communication Growth",
	models.CategoryConfidenceBuilding:       "💪 Confidence Boost",
	models.CategoryRelationshipInsight:      "🤝 Relationship Insight",
	models.CategoryStressRelief:             "🧘 Stress Relief",
	models.CategoryMindfulnessPractice:      "🧠 Mindfulness Practice",
}

var styles = map[models.MilestoneCategory]Style{
	models.CategoryEmotionalBreakthrough:    {Color: "#FF6B6B", Icon: "🌟"},
	models.CategorySelfAwareness:            {Color: "#4ECDC4", Icon: "🪞"},
	models.CategoryCopingStrategy:           {Color: "#45B7D1", Icon: "🛠️"},
	models.CategoryGoalSetting:              {Color: "#FFA07A", Icon: "🎯"},
	models.CategoryAnxietyManagement:        {Color: "#98D8C8", Icon: "😌"},
	models.CategoryCommunicationImprovement: {Color: "#F7DC6F", Icon: "💬"},
	models.CategoryConfidenceBuilding:       {Color: "#BB8FCE", Icon: "💪"},
	models.CategoryRelationshipInsight:      {Color: "#F8B88B", Icon: "🤝"},
	models.CategoryStressRelief:             {Color: "#85C1E9", Icon: "🧘"},
	models.CategoryMindfulnessPractice:      {Color: "#82E0AA", Icon: "🧠"},
}

// fallbackStyle is used for any category without a styles entry, so new
// categories degrade gracefully instead of rendering blank cards.
var fallbackStyle = Style{Color: "#0A84FF", Icon: "✨"}

// Title returns the display title for a category.
func Title(category models.MilestoneCategory) string {
	return titles[category]
}

// StyleFor returns the display style for a category, falling back to a
// neutral style for unrecognized categories.
func StyleFor(category models.MilestoneCategory) Style {
	if s, ok := styles[category]; ok {
		return s
	}
	return fallbackStyle
}
