package downloader

import (
	"strings"
	"unicode"

	"soulspot/internal/constants"
	"soulspot/internal/slskd"
)

// ScoreFile rates a peer's offered file against the target track. A
// result <= 0 means the candidate is rejected.
//
// Policy: FLAC is accepted unconditionally; MP3 only at or above the
// bitrate floor (unknown bitrate is rejected). Candidates whose length
// deviates from the target by more than the ceiling are rejected, as
// are candidates whose remote path does not plausibly contain the
// artist and title. Peer quality (free slots, speed, queue, size) adds
// small bonuses on top.
func ScoreFile(file slskd.SearchFile, resp slskd.SearchResponse, targetDurationMS int, artist, title string) float64 {
	var score float64

	name := strings.ToLower(file.Filename)
	switch {
	case strings.HasSuffix(name, constants.ExtFLAC):
		score += constants.FLACBaseScore
	case strings.HasSuffix(name, constants.ExtMP3):
		if file.BitRate < constants.MinMP3Bitrate {
			// Below the floor or unknown bitrate.
			return -1
		}
		score += constants.MP3BaseScore
	default:
		return -1
	}

	if artist != "" && title != "" && !filenameMatches(file.Filename, artist, title) {
		return -1
	}

	if file.Length > 0 && targetDurationMS > 0 {
		deviationMS := file.Length*1000 - targetDurationMS
		if deviationMS < 0 {
			deviationMS = -deviationMS
		}
		switch {
		case deviationMS > constants.MaxDurationDeviationMS:
			return -1
		case deviationMS < 5000:
			score += 20
		case deviationMS < 15000:
			score += 10
		}
	} else if file.Length == 0 {
		// Unknown candidate duration: penalize, don't reject.
		score -= 10
	}

	if resp.FreeUploadSlots > 0 {
		score += 15
	}
	if resp.UploadSpeed > 1_000_000 {
		score += 10
	} else if resp.UploadSpeed > 500_000 {
		score += 5
	}
	if resp.QueueLength < 5 {
		score += 10
	} else if resp.QueueLength < 20 {
		score += 5
	}
	if file.Size > 3_000_000 {
		score += 5
	}

	return score
}

// SelectCandidate scores every file across all peer responses and
// returns the peer and file with the highest positive score. Ties are
// broken by encounter order: the first seen wins, so selection is
// stable for identical inputs. ok is false when nothing scores
// positively.
func SelectCandidate(responses []slskd.SearchResponse, targetDurationMS int, artist, title string) (username string, file slskd.SearchFile, ok bool) {
	var bestScore float64
	for _, resp := range responses {
		for _, f := range resp.Files {
			s := ScoreFile(f, resp, targetDurationMS, artist, title)
			if s <= 0 {
				continue
			}
			if !ok || s > bestScore {
				ok = true
				bestScore = s
				username = resp.Username
				file = f
			}
		}
	}
	return username, file, ok
}

// filenameMatches checks the candidate's full remote path for the
// track title and artist after case and punctuation normalization.
// The title must appear as a substring; the artist must appear as a
// substring, or for multi-word artist names at least half the words
// must appear individually.
func filenameMatches(path, artist, title string) bool {
	haystack := normalizeForMatch(path)
	t := normalizeForMatch(title)
	a := normalizeForMatch(artist)
	if t == "" || a == "" {
		return true
	}

	if !strings.Contains(haystack, t) {
		return false
	}
	if strings.Contains(haystack, a) {
		return true
	}

	words := strings.Fields(a)
	if len(words) < 2 {
		return false
	}
	hits := 0
	for _, w := range words {
		if strings.Contains(haystack, w) {
			hits++
		}
	}
	return hits*2 >= len(words)
}

// normalizeForMatch lowercases and replaces punctuation runs with
// single spaces.
func normalizeForMatch(s string) string {
	var b strings.Builder
	pendingSpace := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteRune(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		} else {
			pendingSpace = true
		}
	}
	return b.String()
}
