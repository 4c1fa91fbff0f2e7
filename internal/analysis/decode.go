package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// maxStringLayers bounds how many times a body may be a JSON document
// serialized into a JSON string.
const maxStringLayers = 2

// backendError is the {"Error": "..."} shape the services return, often
// with a 200 status.
type backendError struct {
	Error string `json:"Error"`
}

// unwrap strips code fences and up to maxStringLayers of JSON-string
// wrapping, returning the innermost document.
func unwrap(body []byte) ([]byte, error) {
	raw := trimFence(bytes.TrimSpace(body))
	for i := 0; i < maxStringLayers; i++ {
		if len(raw) == 0 || raw[0] != '"' {
			break
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
		raw = trimFence(bytes.TrimSpace([]byte(s)))
	}
	return raw, nil
}

// trimFence removes a surrounding ``` or ```json fence.
func trimFence(b []byte) []byte {
	if !bytes.HasPrefix(b, []byte("```")) {
		return b
	}
	b = bytes.TrimPrefix(b, []byte("```"))
	if nl := bytes.IndexByte(b, '\n'); nl >= 0 {
		b = b[nl+1:]
	}
	b = bytes.TrimSuffix(bytes.TrimSpace(b), []byte("```"))
	return bytes.TrimSpace(b)
}

// remoteError reports the message of an {"Error": ...} body, if any.
func remoteError(doc []byte) (string, bool) {
	if len(doc) == 0 || doc[0] != '{' {
		return "", false
	}
	var be backendError
	if err := json.Unmarshal(doc, &be); err != nil || be.Error == "" {
		return "", false
	}
	return be.Error, true
}

// decodeTranscript extracts the transcript from a transcription response.
// Bodies that are not a recognised JSON shape are taken verbatim.
func decodeTranscript(body []byte) (string, error) {
	doc, err := unwrap(body)
	if err != nil {
		// Not valid JSON after all; the raw body is the transcript.
		return string(body), nil
	}
	if msg, ok := remoteError(doc); ok {
		return "", errors.New(msg)
	}

	if len(doc) > 0 && doc[0] == '{' {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(doc, &fields); err == nil {
			for _, key := range []string{"original_text", "text", "transcript"} {
				if v, ok := fields[key]; ok {
					var s string
					if err := json.Unmarshal(v, &s); err == nil {
						return s, nil
					}
				}
			}
		}
	}

	if bytes.Equal(doc, bytes.TrimSpace(body)) {
		return string(body), nil
	}
	// body was a JSON string holding plain text.
	return string(doc), nil
}

// DecodeFeedback is the single decode step for scoring responses. It yields
// a Feedback or an error wrapping ErrMalformedResponse.
func DecodeFeedback(body []byte) (*Feedback, error) {
	doc, err := unwrap(body)
	if err != nil {
		return nil, err
	}
	if msg, ok := remoteError(doc); ok {
		return nil, errors.New(msg)
	}
	if len(doc) == 0 || doc[0] != '{' {
		return nil, fmt.Errorf("%w: expected an object, got %s", ErrMalformedResponse, preview(doc))
	}

	var wire struct {
		Score         flexText `json:"score"`
		Feedback      flexText `json:"feedback"`
		MissingPoints flexText `json:"missing_points"`
		Suggestions   flexText `json:"suggestions"`
		Resources     flexText `json:"resources"`
		CorrectAnswer flexText `json:"correct_answer"`
	}
	if err := json.Unmarshal(doc, &wire); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	fb := &Feedback{
		Score:         string(wire.Score),
		Feedback:      string(wire.Feedback),
		MissingPoints: string(wire.MissingPoints),
		Suggestions:   string(wire.Suggestions),
		Resources:     string(wire.Resources),
		CorrectAnswer: string(wire.CorrectAnswer),
	}
	if fb.Score == "" && fb.Feedback == "" {
		return nil, fmt.Errorf("%w: no score or feedback in %s", ErrMalformedResponse, preview(doc))
	}
	return fb, nil
}

// DecodeReview decodes a whole-session review response.
func DecodeReview(body []byte) (*Review, error) {
	doc, err := unwrap(body)
	if err != nil {
		return nil, err
	}
	if msg, ok := remoteError(doc); ok {
		return nil, errors.New(msg)
	}
	if len(doc) == 0 || doc[0] != '{' {
		return nil, fmt.Errorf("%w: expected an object, got %s", ErrMalformedResponse, preview(doc))
	}

	var wire struct {
		Summary    flexText `json:"Summary"`
		Strengths  flexText `json:"Strengths"`
		Weaknesses []struct {
			Weakness     flexText `json:"Weakness"`
			HowToImprove flexText `json:"How to improve"`
		} `json:"Weaknesses"`
		Conclusion flexText `json:"Conclusion"`
	}
	if err := json.Unmarshal(doc, &wire); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	r := &Review{
		Summary:    string(wire.Summary),
		Strengths:  string(wire.Strengths),
		Conclusion: string(wire.Conclusion),
	}
	for _, w := range wire.Weaknesses {
		r.Weaknesses = append(r.Weaknesses, Weakness{
			Weakness:     string(w.Weakness),
			HowToImprove: string(w.HowToImprove),
		})
	}
	if r.Summary == "" && r.Conclusion == "" {
		return nil, fmt.Errorf("%w: no summary or conclusion in %s", ErrMalformedResponse, preview(doc))
	}
	return r, nil
}

// flexText accepts a JSON string, number, or list of strings. Lists are
// joined with newlines.
type flexText string

func (f *flexText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}

	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexText(s)
	case '[':
		var items []flexText
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = string(it)
		}
		*f = flexText(strings.Join(parts, "\n"))
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("unsupported value %s", preview(b))
		}
		*f = flexText(n.String())
	}
	return nil
}

func preview(b []byte) string {
	const limit = 80
	s := string(b)
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	if s == "" {
		return "empty body"
	}
	return fmt.Sprintf("%q", s)
}
