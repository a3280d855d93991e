// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort      = "8080"
	DefaultDBPath    = "soulspot.db"
	DefaultSlskdURL  = "http://localhost:5030"
	DefaultHTTPRetry = 3
	DefaultRetryBase = 1 * time.Second
	SlskdHTTPTimeout = 60 * time.Second
	ImageHTTPTimeout = 30 * time.Second
)

// Search behavior against the slskd daemon
const (
	DefaultSearchTimeoutMS = 30000
	SearchResponseLimit    = 100
	SearchMaxQueueLength   = 50
	SearchPollInterval     = 2 * time.Second
	SearchMaxWait          = 45 * time.Second
)

// Transfer watching and per-track pacing
const (
	TransferPollInterval = 5 * time.Second
	TransferTimeout      = 600 * time.Second
	SettleDelay          = 5 * time.Second
	TrackDelay           = 2 * time.Second
)

// Candidate scoring policy
const (
	MinMP3Bitrate          = 320
	MaxDurationDeviationMS = 30000
	FLACBaseScore          = 90
	MP3BaseScore           = 100
)

// Format conversion
const (
	ConvertTimeout = 120 * time.Second
	TargetBitrate  = "320k"
)

// Cover art embedded into tagged files
const (
	CoverArtSize        = 600
	CoverArtJPEGQuality = 90
)

// File Extensions
const (
	ExtFLAC = ".flac"
	ExtMP3  = ".mp3"
)

// File Permissions
const (
	DirPermissions  = 0755
	FilePermissions = 0644
)

// Diagnostics bounds for the download-directory dump attached to
// locate failures.
const (
	DirDumpMaxDepth = 3
	DirDumpMaxFiles = 10
	DirDumpMaxLines = 50
)

// Characters to sanitize from filesystem paths
const InvalidPathChars = "<>:\"/\\|?*"
