package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tonearm/internal/jobs"
)

// ReleaseTypes enumerates the canonical release type values a proposal may carry.
var ReleaseTypes = []string{"Album", "EP", "Single", "Compilation", "Live", "Remix", "Bootleg"}

// Confidences enumerates the canonical confidence values a proposal may carry.
var Confidences = []string{"low", "medium", "high"}

var releaseTypeByLower = func() map[string]string {
	m := make(map[string]string, len(ReleaseTypes))
	for _, rt := range ReleaseTypes {
		m[strings.ToLower(rt)] = rt
	}
	return m
}()

// CanonicalReleaseType normalizes a release type to its canonical spelling.
func CanonicalReleaseType(value string) (string, bool) {
	canonical, ok := releaseTypeByLower[strings.ToLower(strings.TrimSpace(value))]
	return canonical, ok
}

// CanonicalConfidence normalizes a confidence label to lowercase.
func CanonicalConfidence(value string) (string, bool) {
	lowered := strings.ToLower(strings.TrimSpace(value))
	switch lowered {
	case "low", "medium", "high":
		return lowered, true
	}
	return "", false
}

type proposalPayload struct {
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	Year        int    `json:"year"`
	ReleaseType string `json:"release_type"`
	Confidence  string `json:"confidence"`
	Reasoning   string `json:"reasoning"`
}

func decodeProposal(content string) (jobs.Proposal, error) {
	var empty jobs.Proposal
	var payload proposalPayload
	if err := decodeJSONPayload(content, &payload); err != nil {
		return empty, fmt.Errorf("parse payload: %w", err)
	}

	releaseType, ok := CanonicalReleaseType(payload.ReleaseType)
	if !ok {
		return empty, fmt.Errorf("invalid release_type %q (expected one of %s)",
			payload.ReleaseType, strings.Join(ReleaseTypes, ", "))
	}
	confidence, ok := CanonicalConfidence(payload.Confidence)
	if !ok {
		return empty, fmt.Errorf("invalid confidence %q (expected one of %s)",
			payload.Confidence, strings.Join(Confidences, ", "))
	}
	if payload.Year < 0 {
		return empty, fmt.Errorf("invalid year %d", payload.Year)
	}

	return jobs.Proposal{
		Artist:      strings.TrimSpace(payload.Artist),
		Album:       strings.TrimSpace(payload.Album),
		Year:        payload.Year,
		ReleaseType: releaseType,
		Confidence:  confidence,
		Reasoning:   strings.TrimSpace(payload.Reasoning),
	}, nil
}

// decodeJSONPayload decodes JSON from an analyzer response, handling common
// formatting quirks such as code fences and surrounding prose.
func decodeJSONPayload(content string, target any) error {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return errors.New("empty payload")
	}

	directErr := json.Unmarshal([]byte(trimmed), target)
	if directErr == nil {
		return nil
	}

	sanitized := sanitizeJSONPayload(trimmed)
	if sanitized == "" || sanitized == trimmed {
		return fmt.Errorf("%w (payload snippet: %s)", directErr, summarizePayloadSnippet(trimmed))
	}

	sanitizedErr := json.Unmarshal([]byte(sanitized), target)
	if sanitizedErr == nil {
		return nil
	}
	return fmt.Errorf("%w (sanitized payload snippet: %s)", sanitizedErr, summarizePayloadSnippet(sanitized))
}

func sanitizeJSONPayload(content string) string {
	trimmed := strings.TrimSpace(stripCodeFenceBlock(content))
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripCodeFenceBlock(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	body = strings.TrimLeft(body, " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
		body = strings.TrimLeft(body, " \t\r\n")
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}

func summarizePayloadSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	replacer := strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")
	clean := replacer.Replace(trimmed)
	clean = strings.Join(strings.Fields(clean), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
