package analyzer

import (
	"regexp"
	"strconv"
	"strings"

	"tonearm/internal/jobs"
	"tonearm/internal/library"
	"tonearm/internal/textutil"
)

var yearPrefixPattern = regexp.MustCompile(`^\s*((?:19|20)\d{2})\s*-\s*(.+)$`)

// FallbackProposal builds a proposal from audio tag patterns and the folder
// name when no remote analyzer is configured. Tag-derived values win over the
// folder name; confidence is always low so reviewers know the origin.
func FallbackProposal(req Request) jobs.Proposal {
	var patterns *library.Patterns
	if req.Snapshot != nil {
		patterns = req.Snapshot.Patterns
	}
	if patterns == nil {
		patterns = &library.Patterns{}
	}

	folderName := strings.TrimSpace(req.FolderName)
	folderAlbum := folderName
	folderYear := 0
	if match := yearPrefixPattern.FindStringSubmatch(folderName); match != nil {
		folderYear, _ = strconv.Atoi(match[1])
		folderAlbum = strings.TrimSpace(match[2])
	}

	proposal := jobs.Proposal{
		ReleaseType: "Album",
		Confidence:  "low",
		Reasoning:   "Heuristic proposal derived from the folder name and audio tags; no analyzer is configured.",
	}

	switch {
	case patterns.CommonArtist != "":
		proposal.Artist = patterns.CommonArtist
	case strings.TrimSpace(req.ArtistHint) != "":
		proposal.Artist = strings.TrimSpace(req.ArtistHint)
	}

	if patterns.CommonAlbum != "" {
		proposal.Album = patterns.CommonAlbum
	} else if folderAlbum != "" {
		proposal.Album = textutil.TitleCase(folderAlbum)
	}

	if patterns.CommonYear > 0 {
		proposal.Year = patterns.CommonYear
	} else {
		proposal.Year = folderYear
	}

	if patterns.LikelyCompilation {
		proposal.ReleaseType = "Compilation"
	}

	return proposal
}
