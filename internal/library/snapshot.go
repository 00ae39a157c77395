package library

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// audioExtensions are the file types treated as audio tracks.
var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".flac": {},
	".m4a":  {},
	".mp4":  {},
	".ogg":  {},
	".opus": {},
	".wav":  {},
}

// maxFileList caps how many relative paths a snapshot serializes. Counts are
// always exact; only the listing is truncated.
const maxFileList = 100

// IsAudioFile reports whether a filename has a recognized audio extension.
func IsAudioFile(name string) bool {
	_, ok := audioExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Snapshot describes a folder at analysis time.
type Snapshot struct {
	FolderName     string    `json:"folder_name"`
	AudioFileCount int       `json:"audio_file_count"`
	DirectAudio    int       `json:"direct_audio_count"`
	Files          []string  `json:"files,omitempty"`
	Subdirectories []string  `json:"subdirectories,omitempty"`
	AudioSubdirs   []string  `json:"audio_subdirectories,omitempty"`
	Patterns       *Patterns `json:"patterns,omitempty"`
}

// Take walks a folder and builds its snapshot, including tag patterns when
// the folder holds audio directly.
func Take(dir string) (*Snapshot, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	snap := &Snapshot{FolderName: filepath.Base(dir)}
	audioBearing := make(map[string]struct{})
	var directAudioPaths []string

	err = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable subtrees reduce the snapshot, they don't abort it.
			if path == dir {
				return walkErr
			}
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil || rel == "." {
			return nil
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			if !strings.Contains(rel, string(filepath.Separator)) {
				snap.Subdirectories = append(snap.Subdirectories, name)
			}
			return nil
		}
		if !IsAudioFile(name) {
			return nil
		}

		snap.AudioFileCount++
		if len(snap.Files) < maxFileList {
			snap.Files = append(snap.Files, rel)
		}
		if strings.Contains(rel, string(filepath.Separator)) {
			top := strings.SplitN(rel, string(filepath.Separator), 2)[0]
			audioBearing[top] = struct{}{}
		} else {
			snap.DirectAudio++
			directAudioPaths = append(directAudioPaths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk folder: %w", err)
	}

	sort.Strings(snap.Subdirectories)
	sort.Strings(snap.Files)
	for name := range audioBearing {
		snap.AudioSubdirs = append(snap.AudioSubdirs, name)
	}
	sort.Strings(snap.AudioSubdirs)

	if len(directAudioPaths) > 0 {
		sort.Strings(directAudioPaths)
		snap.Patterns = ReadPatterns(directAudioPaths)
	}

	return snap, nil
}

// JSON encodes the snapshot for storage on the job.
func (s *Snapshot) JSON() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(data), nil
}
