package realtime

// Inbound event kinds the orchestrator interprets. Anything else is
// accepted and ignored so upstream protocol additions don't break live
// sessions.
const (
	EventInputTranscriptDone  = "conversation.item.input_audio_transcription.completed"
	EventAudioTranscriptDelta = "response.audio_transcript.delta"
	EventResponseDone         = "response.done"
	EventError                = "error"
)

// Outbound event kinds.
const (
	EventResponseCreate   = "response.create"
	EventInputAudioAppend = "input_audio_buffer.append"
)

// ClientEvent is the outbound control-channel envelope.
type ClientEvent struct {
	Type     string          `json:"type"`
	Response *ResponseConfig `json:"response,omitempty"`
	Audio    string          `json:"audio,omitempty"`
}

// ResponseConfig configures a response.create directive.
type ResponseConfig struct {
	Instructions string       `json:"instructions,omitempty"`
	Modalities   []string     `json:"modalities,omitempty"`
	Voice        string       `json:"voice,omitempty"`
	Audio        *AudioConfig `json:"audio,omitempty"`
}

// AudioConfig overrides audio settings for a single response.
type AudioConfig struct {
	Voice string `json:"voice,omitempty"`
}

// ServerEvent is the inbound control-channel envelope. Fields are
// sparse; which ones are set depends on Type.
type ServerEvent struct {
	Type       string      `json:"type"`
	Transcript string      `json:"transcript,omitempty"`
	Delta      string      `json:"delta,omitempty"`
	Error      *EventErrorPayload `json:"error,omitempty"`
}

// EventErrorPayload is the payload of an inbound "error" event.
type EventErrorPayload struct {
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}
