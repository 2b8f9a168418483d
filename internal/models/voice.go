package models

// KnownVoices lists the voices the upstream provider currently accepts.
var KnownVoices = []string{
	"alloy", "ash", "ballad", "coral", "echo", "sage", "shimmer", "verse", "marin", "cedar",
}

// NormalizeVoice returns voice if it is a known voice, otherwise fallback.
func NormalizeVoice(voice, fallback string) string {
	for _, v := range KnownVoices {
		if v == voice {
			return voice
		}
	}
	return fallback
}
