package analyzer

import (
	"testing"

	"tonearm/internal/library"
)

func TestFallbackProposalPrefersTagPatterns(t *testing.T) {
	req := Request{
		FolderName: "1999 - mislabeled rip",
		Snapshot: &library.Snapshot{
			FolderName: "1999 - mislabeled rip",
			Patterns: &library.Patterns{
				CommonArtist: "Nick Drake",
				CommonAlbum:  "Pink Moon",
				CommonYear:   1972,
			},
		},
	}
	proposal := FallbackProposal(req)
	if proposal.Artist != "Nick Drake" {
		t.Errorf("artist = %q", proposal.Artist)
	}
	if proposal.Album != "Pink Moon" {
		t.Errorf("album = %q", proposal.Album)
	}
	if proposal.Year != 1972 {
		t.Errorf("year = %d, want tag year over folder year", proposal.Year)
	}
	if proposal.ReleaseType != "Album" || proposal.Confidence != "low" {
		t.Errorf("release/confidence = %q/%q", proposal.ReleaseType, proposal.Confidence)
	}
	if proposal.Reasoning == "" {
		t.Error("expected reasoning to note the heuristic origin")
	}
}

func TestFallbackProposalParsesYearPrefixFolder(t *testing.T) {
	req := Request{
		FolderName: "1971 - blue",
		Snapshot:   &library.Snapshot{FolderName: "1971 - blue"},
	}
	proposal := FallbackProposal(req)
	if proposal.Album != "Blue" {
		t.Errorf("album = %q, want title-cased remainder", proposal.Album)
	}
	if proposal.Year != 1971 {
		t.Errorf("year = %d", proposal.Year)
	}
	if proposal.Artist != "" {
		t.Errorf("artist = %q, want empty without tags or hint", proposal.Artist)
	}
}

func TestFallbackProposalUsesArtistHint(t *testing.T) {
	req := Request{
		FolderName: "harvest",
		Snapshot:   &library.Snapshot{FolderName: "harvest"},
		ArtistHint: "Neil Young",
	}
	proposal := FallbackProposal(req)
	if proposal.Artist != "Neil Young" {
		t.Errorf("artist = %q, want hint", proposal.Artist)
	}
	if proposal.Album != "Harvest" {
		t.Errorf("album = %q", proposal.Album)
	}
	if proposal.Year != 0 {
		t.Errorf("year = %d, want 0", proposal.Year)
	}
}

func TestFallbackProposalFlagsCompilation(t *testing.T) {
	req := Request{
		FolderName: "mixed bag",
		Snapshot: &library.Snapshot{
			FolderName: "mixed bag",
			Patterns: &library.Patterns{
				CommonAlbum:       "Now That Is Music",
				LikelyCompilation: true,
			},
		},
	}
	proposal := FallbackProposal(req)
	if proposal.ReleaseType != "Compilation" {
		t.Errorf("release type = %q, want Compilation", proposal.ReleaseType)
	}
	if proposal.Album != "Now That Is Music" {
		t.Errorf("album = %q", proposal.Album)
	}
}

func TestFallbackProposalWithoutSnapshot(t *testing.T) {
	proposal := FallbackProposal(Request{FolderName: "live bootlegs"})
	if proposal.Album != "Live Bootlegs" {
		t.Errorf("album = %q", proposal.Album)
	}
	if proposal.Confidence != "low" {
		t.Errorf("confidence = %q", proposal.Confidence)
	}
}
