package result

import (
	"testing"

	"songresolve/internal/query"
	"songresolve/internal/source"
)

func TestScoreClamped(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0.3, 0.3},
		{1.7, 1},
	}
	for _, tt := range tests {
		r := New(Info{Track: "x"}, nil, tt.in)
		if got := r.Score(); got != tt.want {
			t.Errorf("New(score=%v).Score() = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestUnaffiliatedSourceIsNil(t *testing.T) {
	r := New(Info{Track: "x"}, nil, 0.5)
	if r.Source() != nil {
		t.Errorf("Source() = %v, want nil", r.Source())
	}
}

func TestNilSourcePointerIsUnaffiliated(t *testing.T) {
	var src *source.Source
	r := New(Info{Track: "x"}, src, 0.5)
	if r.Source() != nil {
		t.Fatalf("Source() = %#v, want nil", r.Source())
	}

	q := query.NewFactory(query.Env{}).Get("a", "x", "", "", false)
	q.AddResults([]query.Result{r})
	if !q.Playable() {
		t.Error("unaffiliated result with a score should be playable")
	}
}

func TestSetScoreNotifies(t *testing.T) {
	r := New(Info{Track: "x"}, nil, 0.5)
	calls := 0
	cancel := r.OnChange(func() { calls++ })

	r.SetScore(0.8)
	r.SetScore(0.8)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}

	cancel()
	r.SetScore(0.2)
	if calls != 1 {
		t.Errorf("cancelled watcher called, calls = %d", calls)
	}
}

func TestSourceStatusForwarded(t *testing.T) {
	peer := source.NewPeer("p1", "alice")
	r := New(Info{Track: "x"}, peer, 0.5)

	if peer.Watchers() != 0 {
		t.Fatalf("result subscribed to source before anyone watched it")
	}

	calls := 0
	cancel := r.OnChange(func() { calls++ })
	if peer.Watchers() != 1 {
		t.Fatalf("Watchers = %d, want 1", peer.Watchers())
	}

	peer.SetOnline(true)
	if calls != 1 {
		t.Errorf("calls = %d after source went online, want 1", calls)
	}

	cancel()
	if peer.Watchers() != 0 {
		t.Errorf("source watcher not released, Watchers = %d", peer.Watchers())
	}
}

func TestToMap(t *testing.T) {
	local := source.NewLocal("me")
	r := NewWithID("r1", Info{Artist: "Daft Punk", Track: "One More Time", Mimetype: "audio/mpeg"}, local, 1)
	m := r.ToMap()

	if m["id"] != "r1" || m["artist"] != "Daft Punk" || m["track"] != "One More Time" {
		t.Errorf("unexpected map: %v", m)
	}
	if m["source"] != local.ID() {
		t.Errorf("source = %v, want %s", m["source"], local.ID())
	}
	if m["score"] != 1.0 {
		t.Errorf("score = %v, want 1", m["score"])
	}
}
