package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/solace/solace-backend/internal/models"
)

// Accumulator is the ordered, append-only transcript log for one live
// session. User turns arrive finalized; AI speech arrives as a stream
// of fragments that grow the current in-progress AI entry until a
// response-complete signal closes it.
//
// The accumulator is owned and mutated by the orchestrator only, under
// its serialized dispatch discipline; it carries no locking of its own.
// Consumers get deep copies via Snapshot.
type Accumulator struct {
	entries []models.TranscriptEntry
	aiOpen  bool
	now     func() time.Time
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator(now func() time.Time) *Accumulator {
	if now == nil {
		now = time.Now
	}
	return &Accumulator{now: now}
}

// AppendUser appends a finalized user turn and returns the new entry.
// It does not close an in-progress AI entry; a user turn can land in
// the middle of an AI response.
func (a *Accumulator) AppendUser(content string) models.TranscriptEntry {
	entry := models.TranscriptEntry{
		ID:        uuid.New().String(),
		Timestamp: a.now(),
		Speaker:   models.SpeakerUser,
		Content:   content,
	}
	a.entries = append(a.entries, entry)
	return entry
}

// AppendAIDelta extends the current AI entry with a fragment, creating
// a new in-progress entry if the last entry is not an open AI entry.
// It returns the updated entry and whether it was newly created.
func (a *Accumulator) AppendAIDelta(delta string) (models.TranscriptEntry, bool) {
	if n := len(a.entries); a.aiOpen && n > 0 && a.entries[n-1].Speaker == models.SpeakerAI {
		a.entries[n-1].Content += delta
		return a.entries[n-1], false
	}

	entry := models.TranscriptEntry{
		ID:        uuid.New().String(),
		Timestamp: a.now(),
		Speaker:   models.SpeakerAI,
		Content:   delta,
	}
	a.entries = append(a.entries, entry)
	a.aiOpen = true
	return entry, true
}

// CloseAI marks the in-progress AI entry complete. The next AI fragment
// starts a fresh entry.
func (a *Accumulator) CloseAI() {
	a.aiOpen = false
}

// Len returns the number of entries.
func (a *Accumulator) Len() int {
	return len(a.entries)
}

// Snapshot returns a copy of the transcript in arrival order. The copy
// shares nothing with the live log.
func (a *Accumulator) Snapshot() []models.TranscriptEntry {
	out := make([]models.TranscriptEntry, len(a.entries))
	copy(out, a.entries)
	return out
}
