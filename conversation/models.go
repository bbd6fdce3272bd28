package conversation

import (
	"fmt"
	"strings"
	"time"
)

// State is the ephemeral progress of one applicant through the question
// sequence. It exists from start until all questions are answered; after
// completion all identity rests in the durable application record.
type State struct {
	ApplicationID      string    `json:"application_id"`
	ApplicantID        string    `json:"applicant_id"`
	ApplicantName      string    `json:"applicant_name"`
	QuestionIndex      int       `json:"question_index"`
	Fragments          []string  `json:"fragments"`
	OutboundMessageIDs []string  `json:"outbound_message_ids"`
	StartedAt          time.Time `json:"started_at"`
	LastStart          time.Time `json:"last_start"`
}

// Transcript renders the accumulated question/answer pairs as the serialized
// text persisted on the application record.
func (s State) Transcript() string {
	return strings.Join(s.Fragments, "\n")
}

// AppendAnswer records an answer to the given question and advances the
// cursor. No validation is performed on the answer text.
func (s *State) AppendAnswer(question, answer string) {
	s.Fragments = append(s.Fragments, fmt.Sprintf("Q: %s\nA: %s\n", question, answer))
	s.QuestionIndex++
}
