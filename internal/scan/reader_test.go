// Copyright (c) 2026 Presence Team
// Presence - meeting attendance client
// This source code is licensed under the MIT license found in the LICENSE file.

package scan

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/adjoumani/presence/internal/qr"
)

func waitEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a reader event")
		return Event{}
	}
}

func TestDirReaderEmitsDecodedCode(t *testing.T) {
	dir := t.TempDir()
	if err := qr.EncodeFile("FRAME-1", filepath.Join(dir, "frame.png"), qr.DefaultSize); err != nil {
		t.Fatalf("EncodeFile: %v", err)
	}

	r := NewDirReader(dir, 10*time.Millisecond)
	r.Start(context.Background())
	defer r.Stop()

	ev := waitEvent(t, r.Events())
	if ev.Err != nil {
		t.Fatalf("unexpected reader error: %v", ev.Err)
	}
	if ev.Code != "FRAME-1" {
		t.Fatalf("code = %q, want FRAME-1", ev.Code)
	}
}

func TestDirReaderReEmitsStationaryFrame(t *testing.T) {
	dir := t.TempDir()
	if err := qr.EncodeFile("FRAME-1", filepath.Join(dir, "frame.png"), qr.DefaultSize); err != nil {
		t.Fatalf("EncodeFile: %v", err)
	}

	r := NewDirReader(dir, 10*time.Millisecond)
	r.Start(context.Background())
	defer r.Stop()

	// A frame left in place is decoded on every pass.
	for i := 0; i < 3; i++ {
		ev := waitEvent(t, r.Events())
		if ev.Code != "FRAME-1" {
			t.Fatalf("pass %d: code = %q, want FRAME-1", i, ev.Code)
		}
	}
}

func TestDirReaderReportsMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gone")

	r := NewDirReader(dir, 10*time.Millisecond)
	r.Start(context.Background())
	defer r.Stop()

	ev := waitEvent(t, r.Events())
	if ev.Err == nil {
		t.Fatal("expected a transport error for a missing directory")
	}
}

func TestDirReaderStopClosesChannel(t *testing.T) {
	r := NewDirReader(t.TempDir(), 10*time.Millisecond)
	r.Start(context.Background())
	r.Stop()

	deadline := time.After(3 * time.Second)
	for {
		select {
		case _, ok := <-r.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("event channel not closed after Stop")
		}
	}
}
