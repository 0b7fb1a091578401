package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/MJE43/busfahrer-sim/internal/engine"
	"github.com/MJE43/busfahrer-sim/internal/scan"
)

func TestSweepRecordRoundTrip(t *testing.T) {
	req := scan.SweepRequest{
		Boards:    []int{2, 3},
		Reshuffle: []bool{false},
		Trials:    40,
		Seeds:     engine.Seeds{Server: "secret_server_seed", Client: "client"},
		Mode:      engine.ModePCG,
	}
	res, err := scan.NewScanner().WithWorkers(2).Sweep(context.Background(), req)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	res.Duration = 1500 * time.Millisecond

	sweep, results, err := NewSweepRecord(res, "test")
	if err != nil {
		t.Fatalf("NewSweepRecord: %v", err)
	}
	if strings.Contains(sweep.RequestJSON, "secret_server_seed") {
		t.Fatal("raw server seed leaked into the stored request")
	}
	if sweep.ServerSeedHash != engine.HashSeed("secret_server_seed") {
		t.Errorf("unexpected seed hash %s", sweep.ServerSeedHash)
	}
	if sweep.RNGMode != "pcg" || sweep.Denominator != "deck" || sweep.DurationMs != 1500 || sweep.Trials != 40 {
		t.Errorf("unexpected sweep %+v", sweep)
	}

	db := newTestDB(t)
	ctx := context.Background()
	if err := db.SaveSweep(ctx, sweep, results); err != nil {
		t.Fatalf("SaveSweep: %v", err)
	}
	got, err := db.GetSweep(ctx, sweep.ID)
	if err != nil {
		t.Fatal(err)
	}
	stored, err := db.GetResults(ctx, sweep.ID)
	if err != nil {
		t.Fatal(err)
	}

	entries := Entries(got, stored)
	if len(entries) != len(res.Entries) {
		t.Fatalf("expected %d entries, got %d", len(res.Entries), len(entries))
	}
	for i := range entries {
		if entries[i] != res.Entries[i] {
			t.Errorf("entry %d:\n got %+v\nwant %+v", i, entries[i], res.Entries[i])
		}
	}
}
