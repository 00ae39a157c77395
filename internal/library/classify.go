package library

// Kind is the processing classification of a snapshotted folder.
type Kind string

const (
	// KindNoAudio marks a folder with no audio anywhere; it gets skipped.
	KindNoAudio Kind = "no-audio"
	// KindAlbum marks a folder holding tracks directly; it goes to analysis.
	KindAlbum Kind = "album"
	// KindCollection marks a folder whose audio lives only in
	// subdirectories, typically an artist folder of albums. Each
	// audio-bearing subdirectory becomes its own job.
	KindCollection Kind = "collection"
)

// Classify decides how the pipeline should treat a snapshotted folder.
func (s *Snapshot) Classify() Kind {
	switch {
	case s.AudioFileCount == 0:
		return KindNoAudio
	case s.DirectAudio > 0:
		return KindAlbum
	default:
		return KindCollection
	}
}
