// Package catalog resolves playlist references into ordered track
// metadata using the Spotify Web API.
//
// Response types follow https://developer.spotify.com/documentation/web-api/reference/
package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/oauth2/clientcredentials"

	"soulspot/internal/domain"
	"soulspot/internal/httpclient"
	"soulspot/internal/logger"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	audioFeaturesBatch = 100
)

var playlistPathRe = regexp.MustCompile(`/playlist/([a-zA-Z0-9]+)`)

// SpotifyClient resolves playlists against the Spotify Web API using
// the client-credentials flow.
type SpotifyClient struct {
	BaseURL string
	HTTP    *httpclient.Client
	Logger  *logger.Logger
}

// NewSpotifyClient builds a client whose underlying transport fetches
// and refreshes app tokens automatically.
func NewSpotifyClient(ctx context.Context, clientID, clientSecret string, log *logger.Logger) *SpotifyClient {
	if log == nil {
		log = logger.Default()
	}
	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyTokenURL,
	}
	return &SpotifyClient{
		BaseURL: spotifyBaseURL,
		HTTP:    httpclient.NewClient(conf.Client(ctx), 0),
		Logger:  log.WithComponent("catalog"),
	}
}

type spotifyImage struct {
	URL string `json:"url"`
}

type spotifyArtist struct {
	Name string `json:"name"`
}

type spotifyAlbum struct {
	Name        string         `json:"name"`
	ReleaseDate string         `json:"release_date"`
	TotalTracks int            `json:"total_tracks"`
	Images      []spotifyImage `json:"images"`
}

type spotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	URI         string          `json:"uri"`
	DurationMS  int             `json:"duration_ms"`
	TrackNumber int             `json:"track_number"`
	IsLocal     bool            `json:"is_local"`
	Artists     []spotifyArtist `json:"artists"`
	Album       spotifyAlbum    `json:"album"`
}

type playlistItemsPage struct {
	Items []struct {
		Track *spotifyTrack `json:"track"`
	} `json:"items"`
	Next *string `json:"next"`
}

type playlistResponse struct {
	Name   string            `json:"name"`
	Tracks playlistItemsPage `json:"tracks"`
}

type audioFeatures struct {
	Tempo float64 `json:"tempo"`
	Key   int     `json:"key"`  // 0-11 pitch class, -1 = unknown
	Mode  int     `json:"mode"` // 0 = minor, 1 = major
}

// ExtractPlaylistID pulls the playlist identifier out of a Spotify URL
// or spotify:playlist: URI.
func ExtractPlaylistID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "spotify:playlist:") {
		parts := strings.Split(ref, ":")
		return parts[len(parts)-1], nil
	}
	parsed, err := url.Parse(ref)
	if err == nil {
		if m := playlistPathRe.FindStringSubmatch(parsed.Path); m != nil {
			return m[1], nil
		}
	}
	return "", fmt.Errorf("could not extract playlist id from: %s", ref)
}

// ResolvePlaylist resolves a playlist reference to its display name and
// the ordered track descriptors, following pagination and enriching
// tracks with tempo and musical key where available.
func (c *SpotifyClient) ResolvePlaylist(ctx context.Context, playlistURL string) (string, []domain.TrackInfo, error) {
	id, err := ExtractPlaylistID(playlistURL)
	if err != nil {
		return "", nil, err
	}

	var playlist playlistResponse
	u := fmt.Sprintf("%s/playlists/%s", c.BaseURL, id)
	if err := c.HTTP.DoJSON(ctx, http.MethodGet, u, nil, nil, &playlist); err != nil {
		return "", nil, fmt.Errorf("failed to fetch playlist %s: %w", id, err)
	}

	page := playlist.Tracks
	var tracks []domain.TrackInfo
	var trackIDs []string
	for {
		for _, item := range page.Items {
			t := item.Track
			if t == nil || t.IsLocal {
				continue
			}
			tracks = append(tracks, toTrackInfo(t))
			trackIDs = append(trackIDs, t.ID)
		}
		if page.Next == nil || *page.Next == "" {
			break
		}
		next := *page.Next
		page = playlistItemsPage{}
		if err := c.HTTP.DoJSON(ctx, http.MethodGet, next, nil, nil, &page); err != nil {
			return "", nil, fmt.Errorf("failed to fetch playlist page: %w", err)
		}
	}

	c.enrichAudioFeatures(ctx, tracks, trackIDs)

	c.Logger.Info("Resolved playlist", "playlist", playlist.Name, "tracks", len(tracks))
	return playlist.Name, tracks, nil
}

func toTrackInfo(t *spotifyTrack) domain.TrackInfo {
	artist := "Unknown Artist"
	if len(t.Artists) > 0 {
		artist = t.Artists[0].Name
	}

	album := t.Album.Name
	if album == "" {
		album = "Unknown Album"
	}

	coverURL := ""
	if len(t.Album.Images) > 0 {
		coverURL = t.Album.Images[0].URL
	}

	year := ""
	if len(t.Album.ReleaseDate) >= 4 {
		year = t.Album.ReleaseDate[:4]
	}

	return domain.TrackInfo{
		Title:       t.Name,
		Artist:      artist,
		Album:       album,
		TrackNumber: t.TrackNumber,
		TotalTracks: t.Album.TotalTracks,
		DurationMS:  t.DurationMS,
		CoverURL:    coverURL,
		SpotifyURI:  t.URI,
		Year:        year,
	}
}

// enrichAudioFeatures fills in BPM and musical key from the Audio
// Features API, in batches of 100. Failures are non-fatal; the tracks
// simply keep empty tempo/key fields.
func (c *SpotifyClient) enrichAudioFeatures(ctx context.Context, tracks []domain.TrackInfo, trackIDs []string) {
	for i := 0; i < len(trackIDs); i += audioFeaturesBatch {
		end := i + audioFeaturesBatch
		if end > len(trackIDs) {
			end = len(trackIDs)
		}

		u := fmt.Sprintf("%s/audio-features?ids=%s", c.BaseURL, url.QueryEscape(strings.Join(trackIDs[i:end], ",")))
		var resp struct {
			AudioFeatures []*audioFeatures `json:"audio_features"`
		}
		if err := c.HTTP.DoJSON(ctx, http.MethodGet, u, nil, nil, &resp); err != nil {
			c.Logger.Warn("Failed to fetch audio features", "error", err)
			continue
		}

		for j, features := range resp.AudioFeatures {
			idx := i + j
			if idx >= len(tracks) || features == nil {
				continue
			}
			if features.Tempo > 0 {
				tracks[idx].BPM = features.Tempo
			}
			if features.Key >= 0 {
				tracks[idx].Key = noteName(features.Key, features.Mode)
				tracks[idx].InitialKey = camelotCode(features.Key, features.Mode)
			}
		}
	}
}
