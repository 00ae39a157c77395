package mover

import (
	"fmt"
	"path/filepath"
	"strings"

	"tonearm/internal/jobs"
	"tonearm/internal/textutil"
)

// DestinationDir computes the library location for a reviewed proposal:
// targetRoot/Artist/Album (Year). Missing fields fall back to
// "Unknown Artist"/"Unknown Album"; the year is omitted when absent.
func DestinationDir(targetRoot string, proposal jobs.Proposal) string {
	artist := textutil.SanitizeFileName(proposal.Artist)
	if artist == "" {
		artist = "Unknown Artist"
	}
	album := textutil.SanitizeFileName(proposal.Album)
	if album == "" {
		album = "Unknown Album"
	}
	if proposal.Year > 0 {
		album = fmt.Sprintf("%s (%d)", album, proposal.Year)
	}
	return filepath.Join(targetRoot, artist, album)
}

func proposalLabel(proposal jobs.Proposal) string {
	artist := strings.TrimSpace(proposal.Artist)
	album := strings.TrimSpace(proposal.Album)
	switch {
	case artist != "" && album != "":
		return artist + " - " + album
	case album != "":
		return album
	case artist != "":
		return artist
	}
	return "Unknown Album"
}
