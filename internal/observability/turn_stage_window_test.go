package observability

import "testing"

func TestTurnStageWindowPercentiles(t *testing.T) {
	w := newTurnStageWindow(16)
	for i := 1; i <= 10; i++ {
		w.Observe("reply_generated", float64(i*100))
	}

	snap := w.Snapshot()
	if len(snap.Stages) != 1 {
		t.Fatalf("len(Stages) = %d, want 1", len(snap.Stages))
	}
	s := snap.Stages[0]
	if s.Stage != "reply_generated" {
		t.Fatalf("Stage = %q", s.Stage)
	}
	if s.Samples != 10 {
		t.Fatalf("Samples = %d, want 10", s.Samples)
	}
	if s.LastMS != 1000 {
		t.Fatalf("LastMS = %v, want 1000", s.LastMS)
	}
	if s.P50MS < 500 || s.P50MS > 600 {
		t.Fatalf("P50MS = %v, want ~550", s.P50MS)
	}
	if s.AvgMS != 550 {
		t.Fatalf("AvgMS = %v, want 550", s.AvgMS)
	}
	if s.TargetP95MS != 4000 {
		t.Fatalf("TargetP95MS = %v, want 4000", s.TargetP95MS)
	}
}

func TestTurnStageWindowRingWraps(t *testing.T) {
	w := newTurnStageWindow(4)
	for i := 0; i < 10; i++ {
		w.Observe("turn_total", float64(i))
	}
	snap := w.Snapshot()
	if snap.Stages[0].Samples != 4 {
		t.Fatalf("Samples = %d, want window size 4", snap.Stages[0].Samples)
	}
	// Only the newest four observations survive.
	if snap.Stages[0].AvgMS != 7.5 {
		t.Fatalf("AvgMS = %v, want 7.5", snap.Stages[0].AvgMS)
	}
}

func TestTurnStageWindowIgnoresInvalid(t *testing.T) {
	w := newTurnStageWindow(4)
	w.Observe("", 100)
	w.Observe("turn_total", -5)
	if got := len(w.Snapshot().Stages); got != 0 {
		t.Fatalf("Stages = %d, want 0", got)
	}
}
