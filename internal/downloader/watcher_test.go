package downloader

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"soulspot/internal/logger"
	"soulspot/internal/slskd"
)

// scriptedTransfers returns one pre-arranged poll result per call,
// repeating the last one when the script runs out.
type scriptedTransfers struct {
	calls  int
	states []slskd.DownloadFile
}

func (s *scriptedTransfers) UserDownloads(ctx context.Context, username string) ([]slskd.DownloadDirectory, error) {
	i := s.calls
	if i >= len(s.states) {
		i = len(s.states) - 1
	}
	s.calls++
	return []slskd.DownloadDirectory{
		{Directory: "share", Files: []slskd.DownloadFile{s.states[i]}},
	}, nil
}

func testWatcher(src transferSource) *Watcher {
	return &Watcher{
		Transfers: src,
		Logger:    logger.New(logger.Config{Level: "error", Format: "text"}),
		Poll:      time.Millisecond,
		Timeout:   time.Second,
	}
}

func never() bool { return false }

func TestAwaitSucceeds(t *testing.T) {
	src := &scriptedTransfers{states: []slskd.DownloadFile{
		{Filename: "Song.flac", Size: 100, BytesTransferred: 20, State: "InProgress"},
		{Filename: "Song.flac", Size: 100, BytesTransferred: 60, State: "InProgress"},
		{Filename: "Song.flac", Size: 100, BytesTransferred: 100, State: "Completed, Succeeded"},
	}}

	var progress []float64
	err := testWatcher(src).Await(context.Background(), "peer", "Song.flac", never, func(p float64) {
		progress = append(progress, p)
	})
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if len(progress) == 0 || progress[len(progress)-1] != 100 {
		t.Errorf("final progress = %v, want 100", progress)
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Errorf("progress went backwards: %v", progress)
		}
	}
}

func TestAwaitFailedState(t *testing.T) {
	src := &scriptedTransfers{states: []slskd.DownloadFile{
		{Filename: "Song.flac", Size: 100, BytesTransferred: 20, State: "InProgress"},
		{Filename: "Song.flac", Size: 100, BytesTransferred: 20, State: "Completed, TimedOut"},
	}}

	err := testWatcher(src).Await(context.Background(), "peer", "Song.flac", never, func(float64) {})
	if err == nil {
		t.Fatal("expected error for failed transfer")
	}
	if !strings.Contains(err.Error(), "Completed, TimedOut") {
		t.Errorf("error should carry the raw state: %v", err)
	}
}

func TestAwaitStop(t *testing.T) {
	src := &scriptedTransfers{states: []slskd.DownloadFile{
		{Filename: "Song.flac", Size: 100, BytesTransferred: 20, State: "InProgress"},
	}}

	calls := 0
	stop := func() bool {
		calls++
		return calls > 2
	}
	err := testWatcher(src).Await(context.Background(), "peer", "Song.flac", stop, func(float64) {})
	if !errors.Is(err, errStopped) {
		t.Fatalf("err = %v, want errStopped", err)
	}
}

func TestAwaitTimeout(t *testing.T) {
	src := &scriptedTransfers{states: []slskd.DownloadFile{
		{Filename: "Song.flac", Size: 100, BytesTransferred: 20, State: "InProgress"},
	}}

	w := testWatcher(src)
	w.Timeout = 5 * time.Millisecond
	err := w.Await(context.Background(), "peer", "Song.flac", never, func(float64) {})
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("err = %v, want timeout", err)
	}
}

func TestAwaitIgnoresOtherFiles(t *testing.T) {
	src := &scriptedTransfers{states: []slskd.DownloadFile{
		{Filename: "Other.flac", Size: 100, BytesTransferred: 100, State: "Completed, Succeeded"},
	}}

	w := testWatcher(src)
	w.Timeout = 10 * time.Millisecond
	err := w.Await(context.Background(), "peer", "Song.flac", never, func(float64) {})
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("err = %v, want timeout when filename never appears", err)
	}
}
