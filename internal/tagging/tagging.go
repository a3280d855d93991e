// Package tagging embeds track metadata and cover art into audio files.
package tagging

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"

	"soulspot/internal/artwork"
	"soulspot/internal/constants"
	"soulspot/internal/domain"
	"soulspot/internal/logger"
)

// Tagger writes metadata to finished audio files, fetching cover art
// from the track's catalog cover URL.
type Tagger struct {
	Artwork *artwork.Fetcher
	Logger  *logger.Logger
}

// NewTagger creates a Tagger.
func NewTagger(log *logger.Logger) *Tagger {
	if log == nil {
		log = logger.Default()
	}
	return &Tagger{
		Artwork: artwork.NewFetcher(),
		Logger:  log.WithComponent("tagging"),
	}
}

// Tag embeds the track's metadata and cover art into the file at path.
// Cover art download failures degrade to tagging without a picture.
func (t *Tagger) Tag(ctx context.Context, path string, track domain.TrackInfo) error {
	cover, err := t.Artwork.CoverJPEG(ctx, track.CoverURL)
	if err != nil {
		t.Logger.Warn("Failed to fetch cover art", "error", err, "url", track.CoverURL)
		cover = nil
	}
	return TagFile(path, track, cover)
}

// TagFile writes metadata tags to the audio file at path. The cover is
// optional JPEG bytes.
func TagFile(path string, track domain.TrackInfo, cover []byte) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case constants.ExtMP3:
		return tagMP3(path, track, cover)
	case constants.ExtFLAC:
		return tagFLAC(path, track, cover)
	default:
		return fmt.Errorf("unsupported file format: %s", filepath.Ext(path))
	}
}

func tagMP3(path string, track domain.TrackInfo, cover []byte) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open mp3 for tagging: %w", err)
	}
	defer tag.Close()

	tag.SetTitle(track.Title)
	tag.SetArtist(track.Artist)
	tag.SetAlbum(track.Album)
	tag.AddTextFrame("TRCK", tag.DefaultEncoding(), fmt.Sprintf("%d/%d", track.TrackNumber, track.TotalTracks))

	if track.Year != "" {
		tag.AddTextFrame("TDRC", tag.DefaultEncoding(), track.Year)
	}
	if track.BPM > 0 {
		tag.AddTextFrame("TBPM", tag.DefaultEncoding(), strconv.Itoa(int(math.Round(track.BPM))))
	}
	if track.Key != "" {
		tag.AddTextFrame("TKEY", tag.DefaultEncoding(), track.Key)
	}
	// Camelot code as a custom tag, read by Rekordbox, Traktor, etc.
	if track.InitialKey != "" {
		tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: "INITIAL_KEY",
			Value:       track.InitialKey,
		})
	}

	if len(cover) > 0 {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTFrontCover,
			Description: "Cover",
			Picture:     cover,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save mp3 tags: %w", err)
	}
	return nil
}

func tagFLAC(path string, track domain.TrackInfo, cover []byte) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return fmt.Errorf("failed to parse flac: %w", err)
	}

	// Drop any existing vorbis comment and picture blocks; we replace
	// both wholesale.
	kept := f.Meta[:0]
	for _, block := range f.Meta {
		if block.Type == flac.VorbisComment || block.Type == flac.Picture {
			continue
		}
		kept = append(kept, block)
	}
	f.Meta = kept

	cmts := flacvorbis.New()
	addVorbis(cmts, flacvorbis.FIELD_TITLE, track.Title)
	addVorbis(cmts, flacvorbis.FIELD_ARTIST, track.Artist)
	addVorbis(cmts, flacvorbis.FIELD_ALBUM, track.Album)
	addVorbis(cmts, flacvorbis.FIELD_TRACKNUMBER, strconv.Itoa(track.TrackNumber))
	addVorbis(cmts, "TRACKTOTAL", strconv.Itoa(track.TotalTracks))
	if track.Year != "" {
		addVorbis(cmts, flacvorbis.FIELD_DATE, track.Year)
	}
	if track.BPM > 0 {
		addVorbis(cmts, "BPM", strconv.Itoa(int(math.Round(track.BPM))))
	}
	if track.InitialKey != "" {
		addVorbis(cmts, "INITIAL_KEY", track.InitialKey)
	}
	cmtBlock := cmts.Marshal()
	f.Meta = append(f.Meta, &cmtBlock)

	if len(cover) > 0 {
		pic, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "Cover", cover, "image/jpeg")
		if err != nil {
			return fmt.Errorf("failed to build flac picture: %w", err)
		}
		picBlock := pic.Marshal()
		f.Meta = append(f.Meta, &picBlock)
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("failed to save flac tags: %w", err)
	}
	return nil
}

func addVorbis(cmts *flacvorbis.MetaDataBlockVorbisComment, field, value string) {
	if value == "" {
		return
	}
	_ = cmts.Add(field, value)
}
