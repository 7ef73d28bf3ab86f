package logstore

import (
	"time"

	"fairbot/internal/apperrors"
	"fairbot/internal/storage"
)

type EventKind string

const (
	KindQuestion   EventKind = "QUESTION"
	KindAnswer     EventKind = "AI_RESPONSE"
	KindCorrection EventKind = "ADMIN_CORRECTION"
)

// Kinds lists every event kind in the order the history view reads them.
var Kinds = []EventKind{KindAnswer, KindQuestion, KindCorrection}

func (k EventKind) Valid() bool {
	switch k {
	case KindQuestion, KindAnswer, KindCorrection:
		return true
	}
	return false
}

// TimestampLayout is ISO 8601 UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Entry is one immutable log event. Which optional fields are set depends on
// Kind: UserQuestion on answers and corrections; OriginalResponse, CorrectorID
// and CorrectionTimestamp on corrections only.
type Entry struct {
	SessionID     string    `json:"SessionId" yaml:"sessionId"`
	InteractionID string    `json:"InteractionId,omitempty" yaml:"interactionId,omitempty"`
	Timestamp     string    `json:"Timestamp,omitempty" yaml:"timestamp,omitempty"`
	Kind          EventKind `json:"EventType" yaml:"eventType"`
	Content       string    `json:"Content" yaml:"content"`

	UserQuestion        string `json:"UserQuestion,omitempty" yaml:"userQuestion,omitempty"`
	OriginalResponse    string `json:"OriginalAIResponse,omitempty" yaml:"originalAIResponse,omitempty"`
	CorrectorID         string `json:"AdminId,omitempty" yaml:"adminId,omitempty"`
	CorrectionTimestamp string `json:"CorrectionTimestamp,omitempty" yaml:"correctionTimestamp,omitempty"`
}

func NewQuestion(sessionID, interactionID, text string) (Entry, error) {
	if missing := missingFields(
		"sessionId", sessionID,
		"interactionId", interactionID,
		"userQuestion", text,
	); len(missing) > 0 {
		return Entry{}, apperrors.NewMissingFieldError(missing...)
	}
	return Entry{SessionID: sessionID, InteractionID: interactionID, Kind: KindQuestion, Content: text}, nil
}

// NewAnswer builds an AI_RESPONSE. An empty answer text is recorded as is.
func NewAnswer(sessionID, interactionID, text, question string) (Entry, error) {
	if missing := missingFields(
		"sessionId", sessionID,
		"interactionId", interactionID,
	); len(missing) > 0 {
		return Entry{}, apperrors.NewMissingFieldError(missing...)
	}
	return Entry{
		SessionID:     sessionID,
		InteractionID: interactionID,
		Kind:          KindAnswer,
		Content:       text,
		UserQuestion:  question,
	}, nil
}

// CorrectionInput carries an operator's replacement answer for one interaction.
type CorrectionInput struct {
	SessionID           string `json:"sessionId"`
	InteractionID       string `json:"interactionId"`
	UserQuestion        string `json:"userQuestion"`
	OriginalResponse    string `json:"originalAIResponse"`
	CorrectedText       string `json:"correctedAIResponse"`
	CorrectorID         string `json:"adminId,omitempty"`
	CorrectionTimestamp string `json:"correctionTimestamp,omitempty"`
}

func NewCorrection(in CorrectionInput) (Entry, error) {
	if missing := missingFields(
		"sessionId", in.SessionID,
		"interactionId", in.InteractionID,
		"userQuestion", in.UserQuestion,
		"originalAIResponse", in.OriginalResponse,
		"correctedAIResponse", in.CorrectedText,
	); len(missing) > 0 {
		return Entry{}, apperrors.NewMissingFieldError(missing...)
	}
	if in.CorrectionTimestamp != "" {
		if _, err := time.Parse(time.RFC3339Nano, in.CorrectionTimestamp); err != nil {
			return Entry{}, apperrors.NewMalformedError("correctionTimestamp %q is not ISO 8601", in.CorrectionTimestamp)
		}
	}
	return Entry{
		SessionID:           in.SessionID,
		InteractionID:       in.InteractionID,
		Kind:                KindCorrection,
		Content:             in.CorrectedText,
		UserQuestion:        in.UserQuestion,
		OriginalResponse:    in.OriginalResponse,
		CorrectorID:         in.CorrectorID,
		CorrectionTimestamp: in.CorrectionTimestamp,
	}, nil
}

// missingFields takes name/value pairs and returns the names whose value is empty.
func missingFields(pairs ...string) []string {
	var out []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			out = append(out, pairs[i])
		}
	}
	return out
}

func (e Entry) SortKey() string {
	if e.Timestamp == "" {
		return ""
	}
	return e.Timestamp + "#" + string(e.Kind)
}

func (e Entry) toRecord() storage.Record {
	return storage.Record{
		SessionID:           e.SessionID,
		InteractionID:       e.InteractionID,
		Timestamp:           e.Timestamp,
		EventType:           string(e.Kind),
		SortKey:             e.SortKey(),
		Content:             e.Content,
		UserQuestion:        e.UserQuestion,
		OriginalAIResponse:  e.OriginalResponse,
		AdminID:             e.CorrectorID,
		CorrectionTimestamp: e.CorrectionTimestamp,
	}
}

func fromRecord(r storage.Record) Entry {
	return Entry{
		SessionID:           r.SessionID,
		InteractionID:       r.InteractionID,
		Timestamp:           r.Timestamp,
		Kind:                EventKind(r.EventType),
		Content:             r.Content,
		UserQuestion:        r.UserQuestion,
		OriginalResponse:    r.OriginalAIResponse,
		CorrectorID:         r.AdminID,
		CorrectionTimestamp: r.CorrectionTimestamp,
	}
}
