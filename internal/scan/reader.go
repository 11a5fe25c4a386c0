// Copyright (c) 2026 Presence Team
// Presence - meeting attendance client
// This source code is licensed under the MIT license found in the LICENSE file.

package scan

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adjoumani/presence/internal/qr"
)

// Event is one reader emission: either a decoded code or a transport
// error from the reader itself. Frames that simply contain no readable
// QR code produce no event at all.
type Event struct {
	Code string
	Err  error
}

// DirReader is the camera stand-in: it polls a directory for image
// frames and decodes every readable QR code it finds on each pass.
// A frame left in place is decoded on every pass, the same way a
// camera reader keeps emitting a stationary physical code; duplicate
// suppression is the controller's job, not the reader's.
type DirReader struct {
	dir      string
	interval time.Duration
	events   chan Event
	cancel   context.CancelFunc
}

// NewDirReader creates a reader polling dir every interval.
func NewDirReader(dir string, interval time.Duration) *DirReader {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &DirReader{
		dir:      dir,
		interval: interval,
		events:   make(chan Event, 16),
	}
}

// Events returns the emission channel. It is closed when the reader
// stops.
func (r *DirReader) Events() <-chan Event {
	return r.events
}

// Start begins polling until ctx is done or Stop is called.
func (r *DirReader) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	go r.loop(ctx)
}

// Stop ends polling and closes the event channel.
func (r *DirReader) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
}

func (r *DirReader) loop(ctx context.Context) {
	defer close(r.events)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.scanOnce(ctx)
		}
	}
}

func (r *DirReader) scanOnce(ctx context.Context) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		// Losing access to the frame directory is the moral
		// equivalent of a revoked camera permission.
		r.emit(ctx, Event{Err: err})
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !isImage(entry.Name()) {
			continue
		}
		code, err := qr.DecodeFile(filepath.Join(r.dir, entry.Name()))
		if err != nil {
			// Unreadable or codeless frames are not an error condition.
			continue
		}
		r.emit(ctx, Event{Code: code})
	}
}

func (r *DirReader) emit(ctx context.Context, ev Event) {
	select {
	case r.events <- ev:
	case <-ctx.Done():
	}
}

func isImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}
