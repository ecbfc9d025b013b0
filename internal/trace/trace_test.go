package trace

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"roomcraft.ai/internal/protocol"
)

func TestRecorder_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir)
	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	entries := []Entry{
		{
			Time:     ts,
			Tick:     1,
			Commands: []protocol.Command{{Type: protocol.CmdSendSceneRegions}},
			Frames:   []json.RawMessage{json.RawMessage(`{"type":"sreg","regions":[]}`)},
		},
		{Time: ts.Add(time.Second), Tick: 2, Error: "E_INTERNAL: boom"},
	}
	for _, e := range entries {
		if err := r.Record(e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(files) != 1 || files[0].Name() != "steps-2026-03-14-09.jsonl.zst" {
		t.Fatalf("trace files: %v", files)
	}

	got, err := ReadFile(dir + "/" + files[0].Name())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries: got %d want 2", len(got))
	}
	if got[0].Tick != 1 || len(got[0].Commands) != 1 || got[0].Commands[0].Type != protocol.CmdSendSceneRegions {
		t.Fatalf("entry 0: %+v", got[0])
	}
	if got[1].Error != "E_INTERNAL: boom" {
		t.Fatalf("entry 1: %+v", got[1])
	}
}

func TestRecorder_RotatesOnHourBoundary(t *testing.T) {
	dir := t.TempDir()
	r := NewRecorder(dir)
	ts := time.Date(2026, 3, 14, 9, 59, 59, 0, time.UTC)
	if err := r.Record(Entry{Time: ts, Tick: 1}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := r.Record(Entry{Time: ts.Add(time.Minute), Tick: 2}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	files, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected two hourly files, got %v", files)
	}
}
