package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// DefaultPageSize bounds how many records a backend evaluates per Query call.
const DefaultPageSize = 100

var (
	ErrDuplicate    = errors.New("record already exists")
	ErrBadToken     = errors.New("invalid continuation token")
	ErrUnknownStore = errors.New("unknown store driver")
)

// Record is the persisted shape of one log event. JSON names are the table
// attribute names, so JSONL exports of an existing log table load as-is.
type Record struct {
	SessionID           string `json:"SessionId"`
	InteractionID       string `json:"InteractionId,omitempty"`
	Timestamp           string `json:"Timestamp,omitempty"`
	EventType           string `json:"EventType"`
	SortKey             string `json:"Timestamp_EventType,omitempty"`
	Content             string `json:"Content"`
	UserQuestion        string `json:"UserQuestion,omitempty"`
	OriginalAIResponse  string `json:"OriginalAIResponse,omitempty"`
	AdminID             string `json:"AdminId,omitempty"`
	CorrectionTimestamp string `json:"CorrectionTimestamp,omitempty"`
}

// Query selects records from the event-type index, newest first.
// SessionID, when set, filters the page after it has been read, so a page may
// come back short (even empty) while NextToken is still set.
// Limit, when positive, caps the number of records evaluated in this call.
type Query struct {
	EventType string
	SessionID string
	Limit     int
}

type Page struct {
	Records   []Record
	NextToken string
}

// Backend is a key-sorted record store with an event-type secondary index.
// Put never overwrites: a record whose (SessionID, InteractionID, Timestamp,
// EventType) already exists is rejected with ErrDuplicate.
// Implementations must be safe for concurrent use.
type Backend interface {
	Put(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query, token string) (Page, error)
	Close() error
}

// Open selects a backend by driver name.
func Open(driver, dsn string, pageSize int) (Backend, error) {
	switch driver {
	case "memory", "":
		return NewMemoryBackend(pageSize), nil
	case "file":
		return NewFileBackend(dsn, pageSize)
	case "sqlite":
		return NewSQLiteBackend(dsn, pageSize)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownStore, driver)
	}
}

type cursor struct {
	Timestamp     string `json:"t"`
	SessionID     string `json:"s"`
	InteractionID string `json:"i"`
}

func cursorOf(r Record) cursor {
	return cursor{Timestamp: r.Timestamp, SessionID: r.SessionID, InteractionID: r.InteractionID}
}

// less orders index entries ascending; the index is read in reverse.
func (c cursor) less(o cursor) bool {
	if c.Timestamp != o.Timestamp {
		return c.Timestamp < o.Timestamp
	}
	if c.SessionID != o.SessionID {
		return c.SessionID < o.SessionID
	}
	return c.InteractionID < o.InteractionID
}

func encodeToken(c cursor) string {
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeToken(token string) (cursor, error) {
	var c cursor
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return c, fmt.Errorf("%w: %v", ErrBadToken, err)
	}
	if err := json.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("%w: %v", ErrBadToken, err)
	}
	return c, nil
}

func pageBudget(q Query, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if q.Limit > 0 && q.Limit < pageSize {
		return q.Limit
	}
	return pageSize
}

// pageOf runs a Query over an unordered in-memory snapshot.
func pageOf(all []Record, q Query, token string, pageSize int) (Page, error) {
	idx := make([]Record, 0, len(all))
	for _, r := range all {
		if r.EventType == q.EventType {
			idx = append(idx, r)
		}
	}
	sort.SliceStable(idx, func(i, j int) bool { return cursorOf(idx[j]).less(cursorOf(idx[i])) })

	start := 0
	if token != "" {
		after, err := decodeToken(token)
		if err != nil {
			return Page{}, err
		}
		start = sort.Search(len(idx), func(i int) bool { return cursorOf(idx[i]).less(after) })
	}

	end := start + pageBudget(q, pageSize)
	if end > len(idx) {
		end = len(idx)
	}

	var p Page
	for _, r := range idx[start:end] {
		if q.SessionID != "" && r.SessionID != q.SessionID {
			continue
		}
		p.Records = append(p.Records, r)
	}
	if end < len(idx) && end > start {
		p.NextToken = encodeToken(cursorOf(idx[end-1]))
	}
	return p, nil
}

func keyOf(r Record) string {
	return r.SessionID + "\x00" + r.InteractionID + "\x00" + r.Timestamp + "\x00" + r.EventType
}
