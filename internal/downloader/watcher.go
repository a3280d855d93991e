package downloader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"soulspot/internal/logger"
	"soulspot/internal/slskd"
)

// errStopped aborts the current track when the user requested a job
// stop. The track is rolled back to pending by the caller.
var errStopped = errors.New("job stop requested")

// transferSource is the slice of the slskd client the watcher needs.
type transferSource interface {
	UserDownloads(ctx context.Context, username string) ([]slskd.DownloadDirectory, error)
}

// Watcher polls slskd for the state of an enqueued download until it
// completes, fails, times out, or the job is asked to stop.
type Watcher struct {
	Transfers transferSource
	Logger    *logger.Logger
	Poll      time.Duration
	Timeout   time.Duration
}

// Await blocks until the transfer identified by username and remote
// filename reaches a terminal state. onProgress receives percent
// complete as the transfer advances. stop is consulted before every
// poll and before every sleep; when it reports true Await returns
// errStopped immediately.
func (w *Watcher) Await(ctx context.Context, username, filename string, stop func() bool, onProgress func(float64)) error {
	deadline := time.Now().Add(w.Timeout)

	for {
		if stop() {
			return errStopped
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("transfer from %s timed out after %s", username, w.Timeout)
		}

		dirs, err := w.Transfers.UserDownloads(ctx, username)
		if err != nil {
			// Transient API failures should not kill the transfer.
			w.Logger.Warn("transfer poll failed", "username", username, "error", err)
		} else if file, found := findTransfer(dirs, filename); found {
			state := file.State
			switch {
			case isSucceeded(state):
				onProgress(100)
				return nil
			case isCompleted(state):
				return fmt.Errorf("transfer ended in state %q", state)
			default:
				if file.Size > 0 {
					onProgress(float64(file.BytesTransferred) / float64(file.Size) * 100)
				}
			}
		}

		if stop() {
			return errStopped
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.Poll):
		}
	}
}

// findTransfer locates the download entry matching the remote
// filename across the peer's download directories.
func findTransfer(dirs []slskd.DownloadDirectory, filename string) (slskd.DownloadFile, bool) {
	for _, dir := range dirs {
		for _, f := range dir.Files {
			if f.Filename == filename {
				return f, true
			}
		}
	}
	return slskd.DownloadFile{}, false
}

// slskd reports terminal states as "Completed, <reason>".
func isCompleted(state string) bool {
	return strings.HasPrefix(state, "Completed")
}

func isSucceeded(state string) bool {
	return isCompleted(state) && strings.Contains(state, "Succeeded")
}
