package jobs

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Proposal is the suggested library placement for a folder, produced by the
// analyzer and optionally edited by a human on accept. Absent fields mean
// "unknown".
type Proposal struct {
	Artist      string `json:"artist,omitempty"`
	Album       string `json:"album,omitempty"`
	Year        int    `json:"year,omitempty"`
	ReleaseType string `json:"release_type,omitempty"`
	Confidence  string `json:"confidence,omitempty"`
	Reasoning   string `json:"reasoning,omitempty"`
}

// ProposalFromJSON decodes a stored proposal column. ok is false when the
// column is empty or unparseable.
func ProposalFromJSON(data string) (Proposal, bool) {
	if strings.TrimSpace(data) == "" {
		return Proposal{}, false
	}
	var p Proposal
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return Proposal{}, false
	}
	return p, true
}

// JSON encodes the proposal for storage.
func (p Proposal) JSON() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal proposal: %w", err)
	}
	return string(data), nil
}

// Merge returns a copy of p with the non-zero fields of override applied.
// Fields the override leaves at their zero value keep the stored values.
func (p Proposal) Merge(override Proposal) Proposal {
	if override.Artist != "" {
		p.Artist = override.Artist
	}
	if override.Album != "" {
		p.Album = override.Album
	}
	if override.Year != 0 {
		p.Year = override.Year
	}
	if override.ReleaseType != "" {
		p.ReleaseType = override.ReleaseType
	}
	if override.Confidence != "" {
		p.Confidence = override.Confidence
	}
	if override.Reasoning != "" {
		p.Reasoning = override.Reasoning
	}
	return p
}

// IsZero reports whether no field of the proposal is set.
func (p Proposal) IsZero() bool {
	return p == Proposal{}
}
