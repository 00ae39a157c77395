package library

import (
	"os"
	"sort"
	"strings"

	"github.com/dhowden/tag"

	"tonearm/internal/textutil"
)

// Patterns summarizes what the embedded tags of a folder's tracks agree on.
type Patterns struct {
	CommonArtist      string `json:"common_artist,omitempty"`
	CommonAlbum       string `json:"common_album,omitempty"`
	CommonYear        int    `json:"common_year,omitempty"`
	LikelyCompilation bool   `json:"likely_compilation,omitempty"`
	TrackNumbering    string `json:"track_numbering,omitempty"`
}

const (
	// Agreement thresholds over tagged tracks.
	artistAgreement = 0.7
	albumAgreement  = 0.7
	yearAgreement   = 0.5

	// More distinct artists than this suggests a various-artists release.
	compilationArtistLimit = 5

	// artistVariantSimilarity groups spellings like "Beatles, The" with
	// "The Beatles" when they are not an exact case-insensitive match.
	artistVariantSimilarity = 0.65

	// maxTagReads bounds how many files get opened for tag parsing.
	maxTagReads = 25
)

// TrackNumbering values.
const (
	TracksSequential = "sequential"
	TracksSparse     = "sparse"
	TracksNone       = "none"
)

// artistGroup accumulates spelling variants of one artist.
type artistGroup struct {
	fp    *textutil.Fingerprint
	count int
	names map[string]int
}

func (g *artistGroup) representative() string {
	best, bestCount := "", 0
	for name, count := range g.names {
		if count > bestCount || (count == bestCount && name < best) {
			best, bestCount = name, count
		}
	}
	return best
}

// ReadPatterns parses tags from the given audio files and derives agreement
// patterns. Files without readable tags are skipped; an empty result means
// nothing was tagged.
func ReadPatterns(paths []string) *Patterns {
	if len(paths) > maxTagReads {
		paths = paths[:maxTagReads]
	}

	var (
		groups  []*artistGroup
		albums  = make(map[string]int)
		albumBy = make(map[string]string)
		years   = make(map[int]int)
		tracks  []int
		tagged  int
	)

	for _, path := range paths {
		meta := readTags(path)
		if meta == nil {
			continue
		}
		tagged++

		if artist := strings.TrimSpace(meta.Artist()); artist != "" {
			addToArtistGroup(&groups, artist)
		}
		if album := strings.TrimSpace(meta.Album()); album != "" {
			key := strings.ToLower(album)
			albums[key]++
			if _, seen := albumBy[key]; !seen {
				albumBy[key] = album
			}
		}
		if year := meta.Year(); year > 0 {
			years[year]++
		}
		if track, _ := meta.Track(); track > 0 {
			tracks = append(tracks, track)
		}
	}

	if tagged == 0 {
		return &Patterns{TrackNumbering: TracksNone}
	}

	patterns := &Patterns{
		TrackNumbering: classifyTracks(tracks, tagged),
	}

	distinctArtists := 0
	for _, group := range groups {
		distinctArtists++
		if float64(group.count)/float64(tagged) >= artistAgreement {
			patterns.CommonArtist = group.representative()
		}
	}
	patterns.LikelyCompilation = distinctArtists > compilationArtistLimit

	for key, count := range albums {
		if float64(count)/float64(tagged) >= albumAgreement {
			patterns.CommonAlbum = albumBy[key]
		}
	}

	for year, count := range years {
		if float64(count)/float64(tagged) >= yearAgreement {
			patterns.CommonYear = year
		}
	}

	return patterns
}

func readTags(path string) tag.Metadata {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	meta, err := tag.ReadFrom(f)
	if err != nil {
		return nil
	}
	return meta
}

func addToArtistGroup(groups *[]*artistGroup, artist string) {
	for _, group := range *groups {
		for name := range group.names {
			if strings.EqualFold(name, artist) {
				group.names[artist]++
				group.count++
				return
			}
		}
	}

	fp := textutil.NewFingerprint(artist)
	for _, group := range *groups {
		if textutil.CosineSimilarity(group.fp, fp) >= artistVariantSimilarity {
			group.names[artist]++
			group.count++
			return
		}
	}

	*groups = append(*groups, &artistGroup{
		fp:    fp,
		count: 1,
		names: map[string]int{artist: 1},
	})
}

func classifyTracks(tracks []int, tagged int) string {
	if len(tracks) == 0 {
		return TracksNone
	}
	if len(tracks) < tagged {
		return TracksSparse
	}

	sorted := make([]int, len(tracks))
	copy(sorted, tracks)
	sort.Ints(sorted)
	for i, track := range sorted {
		if track != i+1 {
			return TracksSparse
		}
	}
	return TracksSequential
}
