package engine

import (
	"testing"
	"time"

	"github.com/caissadev/caissa/internal/rules"
)

func newTestEngine() *Engine {
	return NewEngine(4)
}

func TestFindsHangingRook(t *testing.T) {
	p := position(t, "k7/8/8/3r4/8/8/3Q4/K7 w - - 0 1")
	e := newTestEngine()

	move, ok := e.FindBestMove(p, SearchLimits{Depth: 3})
	if !ok {
		t.Fatal("no move returned")
	}
	if move.UCI() != "d2d5" {
		t.Errorf("best move = %s, want d2d5", move.UCI())
	}
}

func TestFindsMateInOne(t *testing.T) {
	p := position(t, "k7/8/1K6/8/8/8/8/7R w - - 0 1")
	e := newTestEngine()

	var last SearchInfo
	e.OnInfo = func(info SearchInfo) { last = info }

	move, ok := e.FindBestMove(p, SearchLimits{Depth: 6})
	if !ok {
		t.Fatal("no move returned")
	}
	if move.UCI() != "h1h8" {
		t.Errorf("best move = %s, want h1h8", move.UCI())
	}
	if last.Score <= MateValue-MaxPly {
		t.Errorf("score = %d, want a mate score", last.Score)
	}
	// A found mate ends deepening early.
	if last.Depth == 6 {
		t.Error("search kept deepening after finding a forced mate")
	}
}

func TestNoLegalMoves(t *testing.T) {
	e := newTestEngine()

	stale := position(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if _, ok := e.FindBestMove(stale, SearchLimits{Depth: 3}); ok {
		t.Error("stalemate returned a move")
	}

	mated := rules.NewPosition()
	applyLine(t, mated, "f2f3", "e7e5", "g2g4", "d8h4")
	if _, ok := e.FindBestMove(mated, SearchLimits{Depth: 3}); ok {
		t.Error("checkmate returned a move")
	}
}

func TestTimeBudgetReturnsLegalMove(t *testing.T) {
	p := rules.NewPosition()
	e := newTestEngine()

	start := time.Now()
	move, ok := e.FindBestMove(p, SearchLimits{MoveTime: 5 * time.Millisecond})
	elapsed := time.Since(start)

	if !ok {
		t.Fatal("no move returned under a tight budget")
	}
	legal := false
	for _, m := range p.LegalMoves() {
		if m == move {
			legal = true
			break
		}
	}
	if !legal {
		t.Errorf("returned move %s is not legal", move.UCI())
	}
	// Depth one plus the hard-deadline margin; generous bound for slow CI.
	if elapsed > 2*time.Second {
		t.Errorf("search took %v against a 5ms budget", elapsed)
	}
}

func TestSearchIsDeterministic(t *testing.T) {
	a, okA := newTestEngine().FindBestMove(rules.NewPosition(), SearchLimits{Depth: 3})
	b, okB := newTestEngine().FindBestMove(rules.NewPosition(), SearchLimits{Depth: 3})
	if !okA || !okB {
		t.Fatal("search returned no move")
	}
	if a != b {
		t.Errorf("fresh sessions disagree: %s vs %s", a.UCI(), b.UCI())
	}
}

func TestDepthOneMatchesGreedyEvaluation(t *testing.T) {
	p := position(t, "k7/8/8/3r4/8/8/3Q4/K7 w - - 0 1")

	want := -Infinity
	for _, m := range p.LegalMoves() {
		p.Apply(m)
		score := Evaluate(p)
		if p.SideToMove() == rules.Black {
			score = -score
		}
		p.Undo()
		if -score > want {
			want = -score
		}
	}

	s := NewSearcher(NewTranspositionTable(1), NewOrderer())
	s.begin(p, time.Time{})
	_, got, ok := s.searchRoot(1, rules.NoMove)
	if !ok {
		t.Fatal("no move at depth one")
	}
	if got != want {
		t.Errorf("depth-one score = %d, greedy evaluation = %d", got, want)
	}
}

func negamaxScore(p *rules.Position, depth, ply int) int {
	s := NewSearcher(NewTranspositionTable(1), NewOrderer())
	s.begin(p, time.Time{})
	return s.negamax(depth, -Infinity, Infinity, ply)
}

func TestNegamaxNegationSymmetry(t *testing.T) {
	p := position(t, "k7/8/8/3r4/8/8/3Q4/K7 w - - 0 1")
	const depth = 2

	parent := negamaxScore(p, depth, 0)

	// The mover's score equals the best of the opponent's negated scores
	// one move deeper, each computed from the opponent's own perspective.
	best := -Infinity
	for _, m := range p.LegalMoves() {
		p.Apply(m)
		child := negamaxScore(p, depth-1, 1)
		p.Undo()
		if -child > best {
			best = -child
		}
	}
	if parent != best {
		t.Errorf("negamax depth %d = %d, best negated child score = %d", depth, parent, best)
	}
}

func TestWarmCacheAgreesWithCold(t *testing.T) {
	fen := "k7/8/8/3r4/8/8/3Q4/K7 w - - 0 1"
	e := newTestEngine()

	cold, ok := e.FindBestMove(position(t, fen), SearchLimits{Depth: 4})
	if !ok {
		t.Fatal("cold search returned no move")
	}
	warm, ok := e.FindBestMove(position(t, fen), SearchLimits{Depth: 4})
	if !ok {
		t.Fatal("warm search returned no move")
	}
	if warm != cold {
		t.Errorf("warm cache changed the move: %s vs %s", warm.UCI(), cold.UCI())
	}
	if e.CacheHitRate() == 0 {
		t.Error("repeat search produced no cache hits")
	}
}

func TestOnInfoReportsEachDepth(t *testing.T) {
	e := newTestEngine()
	var depths []int
	e.OnInfo = func(info SearchInfo) {
		depths = append(depths, info.Depth)
		if info.Move == rules.NoMove {
			t.Errorf("depth %d reported no move", info.Depth)
		}
	}

	if _, ok := e.FindBestMove(rules.NewPosition(), SearchLimits{Depth: 3}); !ok {
		t.Fatal("search returned no move")
	}
	if len(depths) != 3 {
		t.Fatalf("got %d progress reports, want 3: %v", len(depths), depths)
	}
	for i, d := range depths {
		if d != i+1 {
			t.Errorf("depths not consecutive: %v", depths)
			break
		}
	}
}

func TestClearResetsSession(t *testing.T) {
	e := newTestEngine()
	if _, ok := e.FindBestMove(rules.NewPosition(), SearchLimits{Depth: 3}); !ok {
		t.Fatal("search returned no move")
	}
	e.Clear()
	if got := e.CacheHitRate(); got != 0 {
		t.Errorf("hit rate after Clear = %f, want 0", got)
	}
}

func TestScoreToString(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{0, "0.00"},
		{125, "1.25"},
		{-9, "-0.09"},
		{MateValue - 1, "mate in 1"},
		{MateValue - 4, "mate in 2"},
		{-(MateValue - 3), "mated in 2"},
	}
	for _, tc := range cases {
		if got := ScoreToString(tc.score); got != tc.want {
			t.Errorf("ScoreToString(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}
