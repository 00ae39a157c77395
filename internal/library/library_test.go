package library_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"tonearm/internal/library"
	"tonearm/internal/testsupport"
)

func TestTakeSnapshotOfAlbumFolder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "1971 - Blue")
	for i := 1; i <= 3; i++ {
		testsupport.WriteMP3(t, filepath.Join(dir, fmt.Sprintf("%02d - track.mp3", i)), testsupport.MP3Tags{
			Artist: "Joni Mitchell",
			Album:  "Blue",
			Year:   1971,
			Track:  i,
		})
	}
	testsupport.WriteFile(t, filepath.Join(dir, "cover.jpg"), 64)

	snap, err := library.Take(dir)
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if snap.FolderName != "1971 - Blue" {
		t.Fatalf("folder name = %q", snap.FolderName)
	}
	if snap.AudioFileCount != 3 || snap.DirectAudio != 3 {
		t.Fatalf("audio counts = %d/%d, want 3/3", snap.AudioFileCount, snap.DirectAudio)
	}
	if len(snap.Files) != 3 {
		t.Fatalf("files = %v", snap.Files)
	}
	if snap.Classify() != library.KindAlbum {
		t.Fatalf("classify = %s, want album", snap.Classify())
	}

	if snap.Patterns == nil {
		t.Fatal("expected patterns from tagged tracks")
	}
	if snap.Patterns.CommonArtist != "Joni Mitchell" {
		t.Fatalf("common artist = %q", snap.Patterns.CommonArtist)
	}
	if snap.Patterns.CommonAlbum != "Blue" {
		t.Fatalf("common album = %q", snap.Patterns.CommonAlbum)
	}
	if snap.Patterns.CommonYear != 1971 {
		t.Fatalf("common year = %d", snap.Patterns.CommonYear)
	}
	if snap.Patterns.TrackNumbering != library.TracksSequential {
		t.Fatalf("track numbering = %q", snap.Patterns.TrackNumbering)
	}
	if snap.Patterns.LikelyCompilation {
		t.Fatal("single-artist album flagged as compilation")
	}
}

func TestTakeClassifiesCollection(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "Neil Young")
	for _, album := range []string{"Harvest", "On the Beach"} {
		testsupport.WriteMP3(t, filepath.Join(parent, album, "01 - song.mp3"), testsupport.MP3Tags{
			Artist: "Neil Young",
			Album:  album,
			Track:  1,
		})
	}
	if err := os.MkdirAll(filepath.Join(parent, "artwork"), 0o755); err != nil {
		t.Fatal(err)
	}

	snap, err := library.Take(parent)
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if snap.Classify() != library.KindCollection {
		t.Fatalf("classify = %s, want collection", snap.Classify())
	}
	if snap.DirectAudio != 0 || snap.AudioFileCount != 2 {
		t.Fatalf("audio counts = %d/%d, want 0/2", snap.DirectAudio, snap.AudioFileCount)
	}
	if len(snap.AudioSubdirs) != 2 {
		t.Fatalf("audio subdirs = %v", snap.AudioSubdirs)
	}
	if snap.AudioSubdirs[0] != "Harvest" || snap.AudioSubdirs[1] != "On the Beach" {
		t.Fatalf("audio subdirs = %v", snap.AudioSubdirs)
	}
	if len(snap.Subdirectories) != 3 {
		t.Fatalf("subdirectories = %v", snap.Subdirectories)
	}
}

func TestTakeClassifiesNoAudio(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scans")
	testsupport.WriteFile(t, filepath.Join(dir, "booklet.pdf"), 128)

	snap, err := library.Take(dir)
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if snap.Classify() != library.KindNoAudio {
		t.Fatalf("classify = %s, want no-audio", snap.Classify())
	}
	if snap.Patterns != nil {
		t.Fatal("expected no patterns without direct audio")
	}
}

func TestTakeSkipsHiddenEntries(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Album")
	testsupport.WriteMP3(t, filepath.Join(dir, "01.mp3"), testsupport.MP3Tags{Artist: "A", Album: "B", Track: 1})
	testsupport.WriteMP3(t, filepath.Join(dir, ".hidden", "x.mp3"), testsupport.MP3Tags{Artist: "A", Album: "B", Track: 2})
	testsupport.WriteFile(t, filepath.Join(dir, ".DS_Store"), 16)

	snap, err := library.Take(dir)
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if snap.AudioFileCount != 1 {
		t.Fatalf("hidden entries leaked into count: %d", snap.AudioFileCount)
	}
	if len(snap.Subdirectories) != 0 {
		t.Fatalf("hidden subdir leaked: %v", snap.Subdirectories)
	}
}

func TestTakeMissingFolder(t *testing.T) {
	if _, err := library.Take(filepath.Join(t.TempDir(), "gone")); err == nil {
		t.Fatal("expected error for missing folder")
	}
}

func TestPatternsGroupArtistVariants(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Revolver")
	variants := []string{"The Beatles", "Beatles, The", "The Beatles"}
	for i, artist := range variants {
		testsupport.WriteMP3(t, filepath.Join(dir, fmt.Sprintf("%02d.mp3", i+1)), testsupport.MP3Tags{
			Artist: artist,
			Album:  "Revolver",
			Track:  i + 1,
		})
	}

	snap, err := library.Take(dir)
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if snap.Patterns == nil {
		t.Fatal("expected patterns")
	}
	if snap.Patterns.CommonArtist != "The Beatles" {
		t.Fatalf("variant grouping failed: common artist = %q", snap.Patterns.CommonArtist)
	}
	if snap.Patterns.LikelyCompilation {
		t.Fatal("variants of one artist flagged as compilation")
	}
}

func TestPatternsFlagCompilation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Now That's Music")
	artists := []string{"Artist One", "Artist Two", "Artist Three", "Artist Four", "Artist Five", "Artist Six"}
	for i, artist := range artists {
		testsupport.WriteMP3(t, filepath.Join(dir, fmt.Sprintf("%02d.mp3", i+1)), testsupport.MP3Tags{
			Artist: artist,
			Album:  "Now That's Music",
			Track:  i + 1,
		})
	}

	snap, err := library.Take(dir)
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if snap.Patterns == nil {
		t.Fatal("expected patterns")
	}
	if !snap.Patterns.LikelyCompilation {
		t.Fatal("expected compilation flag with six distinct artists")
	}
	if snap.Patterns.CommonArtist != "" {
		t.Fatalf("no artist should dominate, got %q", snap.Patterns.CommonArtist)
	}
	if snap.Patterns.CommonAlbum != "Now That's Music" {
		t.Fatalf("common album = %q", snap.Patterns.CommonAlbum)
	}
}

func TestPatternsSparseTracks(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Oddments")
	for i, track := range []int{1, 5, 9} {
		testsupport.WriteMP3(t, filepath.Join(dir, fmt.Sprintf("%02d.mp3", i+1)), testsupport.MP3Tags{
			Artist: "Someone",
			Album:  "Oddments",
			Track:  track,
		})
	}

	snap, err := library.Take(dir)
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if snap.Patterns.TrackNumbering != library.TracksSparse {
		t.Fatalf("track numbering = %q, want sparse", snap.Patterns.TrackNumbering)
	}
}

func TestSnapshotJSONRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Album")
	testsupport.WriteMP3(t, filepath.Join(dir, "01.mp3"), testsupport.MP3Tags{Artist: "A", Album: "B", Year: 2000, Track: 1})

	snap, err := library.Take(dir)
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	data, err := snap.JSON()
	if err != nil {
		t.Fatalf("JSON failed: %v", err)
	}
	if data == "" || data[0] != '{' {
		t.Fatalf("unexpected JSON: %s", data)
	}
}
