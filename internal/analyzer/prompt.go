package analyzer

import (
	"fmt"
	"strings"

	"tonearm/internal/library"
)

// Request carries the folder context sent to the analyzer.
type Request struct {
	FolderName string
	Snapshot   *library.Snapshot
	ArtistHint string
	Feedback   string
}

const systemPrompt = `You are a music library archivist. Given a folder of audio files and its tag metadata, identify the release it contains and respond with JSON only, using exactly this schema:
{"artist": string, "album": string, "year": number, "release_type": string, "confidence": string, "reasoning": string}
release_type must be one of: Album, EP, Single, Compilation, Live, Remix, Bootleg.
confidence must be one of: low, medium, high.
Use the canonical artist and album spelling. Set year to 0 when unknown. Keep reasoning to one or two sentences. Respond with the JSON object and nothing else.`

func buildUserPrompt(req Request) (string, error) {
	snapshotJSON, err := req.Snapshot.JSON()
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Folder name: %s\n", strings.TrimSpace(req.FolderName))
	if hint := strings.TrimSpace(req.ArtistHint); hint != "" {
		fmt.Fprintf(&builder, "Parent collection suggests the artist: %s\n", hint)
	}
	if feedback := strings.TrimSpace(req.Feedback); feedback != "" {
		fmt.Fprintf(&builder, "A previous proposal was rejected by the reviewer. Reviewer feedback: %s\n", feedback)
	}
	builder.WriteString("Folder metadata snapshot:\n")
	builder.WriteString(snapshotJSON)
	return builder.String(), nil
}
