package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Submission is one assessment form submission. It is never stored.
type Submission struct {
	// ReceivedAt is stamped by the HTTP layer and rendered as "Submitted at".
	ReceivedAt    time.Time `json:"-"`
	TotalScore    *float64  `json:"totalScore,omitempty"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Company       string    `json:"company,omitempty"`
	Category      string    `json:"category,omitempty"`
	SectionScores ScoreSet  `json:"sectionScores,omitempty"`
}

// Normalize returns a copy with every text field trimmed and folded onto a
// single line. Section order is preserved; sections past MaxSections are
// dropped.
func (s Submission) Normalize() Submission {
	out := s
	out.Name = oneLine(s.Name)
	out.Email = oneLine(s.Email)
	out.Phone = oneLine(s.Phone)
	out.Company = oneLine(s.Company)
	out.Category = oneLine(s.Category)

	if s.SectionScores != nil {
		b := newScoreBuilder(len(s.SectionScores))
		for _, sc := range s.SectionScores {
			b.set(oneLine(sc.Name), sc.Score)
		}
		out.SectionScores = b.scores
	}
	return out
}

// Validate reports the required fields that are empty: name, email and phone,
// in that order.
func (s Submission) Validate() error {
	var missing []string
	if strings.TrimSpace(s.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(s.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(s.Phone) == "" {
		missing = append(missing, "phone")
	}
	if len(missing) == 0 {
		return nil
	}
	return &Error{
		Kind:    KindValidation,
		Status:  KindValidation.Status(),
		Message: MsgMissingFields,
		Missing: missing,
		Details: ValidationDetails{Missing: missing},
	}
}

// oneLine also composes the text to NFC so visually equal section names
// collapse into one entry.
func oneLine(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// SectionScore is one entry of a ScoreSet.
type SectionScore struct {
	Name  string
	Score float64
}

// MaxSections bounds the number of distinct sections a ScoreSet decodes.
const MaxSections = 1000

// ScoreSet is an ordered section-name to score mapping.
// It decodes from a JSON object and keeps the object's key order.
type ScoreSet []SectionScore

// scoreBuilder appends to a ScoreSet with an index on names. A repeated
// name updates the score and keeps its first position.
type scoreBuilder struct {
	scores ScoreSet
	index  map[string]int
}

func newScoreBuilder(size int) *scoreBuilder {
	size = min(size, MaxSections)
	return &scoreBuilder{scores: make(ScoreSet, 0, size), index: make(map[string]int, size)}
}

// set reports false when name is new and the set already holds MaxSections.
func (b *scoreBuilder) set(name string, score float64) bool {
	if i, ok := b.index[name]; ok {
		b.scores[i].Score = score
		return true
	}
	if len(b.scores) >= MaxSections {
		return false
	}
	b.index[name] = len(b.scores)
	b.scores = append(b.scores, SectionScore{Name: name, Score: score})
	return true
}

// UnmarshalJSON decodes a JSON object of numbers. null yields an empty set.
// Numeric strings are accepted; any other value is an error.
func (s *ScoreSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: expected an object", ErrInvalidScores)
	}

	b := newScoreBuilder(0)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		score, err := parseScore(raw)
		if err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidScores, key, err)
		}
		if !b.set(key, score) {
			return fmt.Errorf("%w: more than %d sections", ErrInvalidScores, MaxSections)
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = b.scores
	return nil
}

// MarshalJSON encodes the set as a JSON object in insertion order.
func (s ScoreSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sc := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(sc.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(FormatScore(sc.Score))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func parseScore(raw json.RawMessage) (float64, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.Float64()
	}

	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return 0, fmt.Errorf("not a number: %s", raw)
	}
	return strconv.ParseFloat(strings.TrimSpace(str), 64)
}

// FormatScore renders a score in its shortest exact decimal form: 24, 4.5.
func FormatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
