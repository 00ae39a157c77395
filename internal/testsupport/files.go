package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// MP3Tags describes the ID3 frames WriteMP3 embeds in a fixture file.
type MP3Tags struct {
	Artist string
	Album  string
	Title  string
	Year   int
	Track  int
}

// WriteMP3 writes a minimal MP3 fixture carrying an ID3v2.3 tag so tests can
// exercise real tag parsing without binary fixtures checked into the tree.
func WriteMP3(t testing.TB, path string, tags MP3Tags) {
	t.Helper()

	var frames []byte
	appendText := func(id, value string) {
		if value == "" {
			return
		}
		payload := append([]byte{0x00}, []byte(value)...)
		size := uint32(len(payload))
		frames = append(frames, id...)
		frames = append(frames, byte(size>>24), byte(size>>16), byte(size>>8), byte(size))
		frames = append(frames, 0x00, 0x00)
		frames = append(frames, payload...)
	}

	appendText("TPE1", tags.Artist)
	appendText("TALB", tags.Album)
	appendText("TIT2", tags.Title)
	if tags.Year > 0 {
		appendText("TYER", strconv.Itoa(tags.Year))
	}
	if tags.Track > 0 {
		appendText("TRCK", strconv.Itoa(tags.Track))
	}

	// ID3v2 header sizes are syncsafe: 7 bits per byte.
	tagSize := len(frames)
	header := []byte{
		'I', 'D', '3', 0x03, 0x00, 0x00,
		byte(tagSize >> 21 & 0x7f),
		byte(tagSize >> 14 & 0x7f),
		byte(tagSize >> 7 & 0x7f),
		byte(tagSize & 0x7f),
	}

	content := append(header, frames...)
	// A sliver of MPEG frame data so the file is not tag-only.
	content = append(content, 0xff, 0xfb, 0x90, 0x00, 0x00, 0x00, 0x00, 0x00)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}
