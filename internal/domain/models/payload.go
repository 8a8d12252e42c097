package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// VerdictKind tags the two observed encodings of analysis.verdict.
type VerdictKind int

const (
	// VerdictFlat is a bare signal string with a sibling confidence.
	VerdictFlat VerdictKind = iota
	// VerdictNested is an object carrying signal and confidence.
	VerdictNested
)

func (k VerdictKind) String() string {
	if k == VerdictNested {
		return "nested"
	}
	return "flat"
}

// VerdictField decodes analysis.verdict in either encoding.
type VerdictField struct {
	Kind       VerdictKind
	Signal     string
	Confidence *float64
	Action     *string
}

func (v *VerdictField) UnmarshalJSON(b []byte) error {
	*v = VerdictField{Kind: VerdictFlat}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	switch b[0] {
	case '"':
		return json.Unmarshal(b, &v.Signal)
	case '{':
		var obj struct {
			Signal     *string    `json:"signal"`
			Confidence *FlexFloat `json:"confidence"`
			Action     *string    `json:"action"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return fmt.Errorf("decode verdict: %w", err)
		}
		// Without a signal the object is read as flat, keeping what it
		// did carry for the flat defaults to use.
		v.Confidence = obj.Confidence.Ptr()
		v.Action = obj.Action
		if obj.Signal == nil {
			return nil
		}
		v.Kind = VerdictNested
		v.Signal = *obj.Signal
		return nil
	}
	// Numbers, arrays and booleans carry no usable signal.
	return nil
}

func (v VerdictField) MarshalJSON() ([]byte, error) {
	if v.Kind != VerdictNested {
		return json.Marshal(v.Signal)
	}
	out := map[string]interface{}{"signal": v.Signal}
	if v.Confidence != nil {
		out["confidence"] = *v.Confidence
	}
	if v.Action != nil {
		out["action"] = *v.Action
	}
	return json.Marshal(out)
}

// FlexFloat accepts a JSON number or a numeric string.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(s), "%"), 64)
		if err != nil {
			return fmt.Errorf("decode number %q: %w", s, err)
		}
		*f = FlexFloat(n)
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexFloat(n)
	return nil
}

// Ptr converts to *float64, keeping nil.
func (f *FlexFloat) Ptr() *float64 {
	if f == nil {
		return nil
	}
	v := float64(*f)
	return &v
}

// FlexText accepts a string, or a list of strings or {title|content} objects
// which are joined one per line.
type FlexText string

func (t *FlexText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = FlexText(s)
		return nil
	}
	if b[0] != '[' {
		*t = ""
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	lines := make([]string, 0, len(items))
	for _, raw := range items {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			lines = append(lines, s)
			continue
		}
		var obj struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		if json.Unmarshal(raw, &obj) == nil {
			if obj.Title != "" {
				lines = append(lines, obj.Title)
			} else if obj.Content != "" {
				lines = append(lines, obj.Content)
			}
		}
	}
	*t = FlexText(strings.Join(lines, "\n"))
	return nil
}

// PayloadAnalysis is the analysis object as received. Pointer fields are nil
// when the key was absent.
type PayloadAnalysis struct {
	Verdict       VerdictField `json:"verdict"`
	Confidence    *FlexFloat   `json:"confidence,omitempty"`
	Action        *string      `json:"action,omitempty"`
	TargetPrice   *FlexFloat   `json:"target_price,omitempty"`
	Timeframe     *string      `json:"timeframe,omitempty"`
	RiskLevel     *string      `json:"risk_level,omitempty"`
	AIExplanation *string      `json:"ai_explanation,omitempty"`
	Reasons       []string     `json:"reasons,omitempty"`
	Flashcard     *Flashcard   `json:"flashcard,omitempty"`
}

// Payload is any analysis response observed on the wire.
type Payload struct {
	Success   *bool           `json:"success,omitempty"`
	Error     string          `json:"error,omitempty"`
	Ticker    string          `json:"ticker"`
	Source    string          `json:"source,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	Currency  string          `json:"currency,omitempty"`
	PriceData *PriceData      `json:"price_data,omitempty"`
	Analysis  PayloadAnalysis `json:"analysis"`
	News      FlexText        `json:"news,omitempty"`
	Social    FlexText        `json:"social,omitempty"`
}

// FailureReason returns a description when the payload carries a failure
// marker: an error message, success=false or source="error".
func (p *Payload) FailureReason() (string, bool) {
	switch {
	case p.Error != "":
		return p.Error, true
	case p.Success != nil && !*p.Success:
		return "analysis service reported failure", true
	case p.Source == SourceError:
		return "analysis service returned an error result", true
	}
	return "", false
}
