package engine

import (
	"testing"

	"github.com/caissadev/caissa/internal/rules"
)

func TestTranspositionStoreProbe(t *testing.T) {
	tt := NewTranspositionTable(1)
	move := rules.Move{From: rules.NewSquare(4, 1), To: rules.NewSquare(4, 3)}

	const key = 0xdeadbeefcafe
	tt.Store(key, 5, 42, move)

	entry, found := tt.Probe(key)
	if !found {
		t.Fatal("stored entry not found")
	}
	if entry.Key != key || entry.Depth != 5 || entry.Score != 42 || entry.BestMove != move {
		t.Errorf("entry = %+v", entry)
	}
}

func TestTranspositionProbeMiss(t *testing.T) {
	tt := NewTranspositionTable(1)
	if _, found := tt.Probe(0x1234); found {
		t.Error("probe of empty table reported a hit")
	}
}

func TestTranspositionKeyVerification(t *testing.T) {
	tt := NewTranspositionTable(1)

	const key = 0x42
	tt.Store(key, 3, 10, rules.NoMove)

	// Same slot, different key: must not be returned.
	collider := key + tt.Size()
	if _, found := tt.Probe(collider); found {
		t.Error("probe returned an entry for a colliding key")
	}
}

func TestTranspositionAlwaysReplace(t *testing.T) {
	tt := NewTranspositionTable(1)

	const key = 0x99
	collider := key + tt.Size()
	tt.Store(key, 9, 100, rules.NoMove)
	tt.Store(collider, 1, -5, rules.NoMove)

	if _, found := tt.Probe(key); found {
		t.Error("old entry survived a colliding store")
	}
	entry, found := tt.Probe(collider)
	if !found {
		t.Fatal("newest entry not found after collision")
	}
	if entry.Depth != 1 || entry.Score != -5 {
		t.Errorf("entry = %+v, want the newest store", entry)
	}
}

func TestTranspositionClear(t *testing.T) {
	tt := NewTranspositionTable(1)
	tt.Store(7, 2, 1, rules.NoMove)
	tt.Probe(7)
	tt.Clear()

	if _, found := tt.Probe(7); found {
		t.Error("entry survived Clear")
	}
	// One miss after the reset: rate reflects only post-clear probes.
	if got := tt.HitRate(); got != 0 {
		t.Errorf("hit rate after clear = %f, want 0", got)
	}
}

func TestTranspositionSizeIsPowerOfTwo(t *testing.T) {
	for _, mb := range []int{1, 3, 16, 100} {
		tt := NewTranspositionTable(mb)
		n := tt.Size()
		if n == 0 || n&(n-1) != 0 {
			t.Errorf("size for %d MB = %d, not a power of two", mb, n)
		}
	}
}

func TestMateScorePlyAdjustment(t *testing.T) {
	// A mate found at ply 4, stored there and probed at ply 2, must read as
	// a mate two plies nearer.
	mateAtNode := MateValue - 7
	stored := scoreToTT(mateAtNode, 4)
	if got := scoreFromTT(stored, 4); got != mateAtNode {
		t.Errorf("round trip at the same ply = %d, want %d", got, mateAtNode)
	}
	if got := scoreFromTT(stored, 2); got != mateAtNode+2 {
		t.Errorf("probe at shallower ply = %d, want %d", got, mateAtNode+2)
	}

	// Non-mate scores pass through untouched.
	if got := scoreFromTT(scoreToTT(123, 9), 3); got != 123 {
		t.Errorf("ordinary score round trip = %d, want 123", got)
	}

	// Mated-side scores adjust symmetrically.
	mated := -(MateValue - 7)
	if got := scoreFromTT(scoreToTT(mated, 4), 2); got != mated-2 {
		t.Errorf("mated score at shallower ply = %d, want %d", got, mated-2)
	}
}
