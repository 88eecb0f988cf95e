package engine

import (
	"strconv"
	"time"

	"github.com/caissadev/caissa/internal/rules"
)

// Budget fractions for iterative deepening: no new depth starts past the
// soft share of the budget, and the recursion aborts past the hard share,
// leaving headroom to return what was found.
const (
	softBudgetPct = 80
	hardBudgetPct = 90
)

// SearchLimits constrains one move request.
type SearchLimits struct {
	Depth    int           // maximum depth (0 = MaxPly-1)
	MoveTime time.Duration // wall-clock budget (0 = no limit)
}

// SearchInfo reports per-depth progress to the OnInfo callback.
type SearchInfo struct {
	Depth   int
	Score   int // from the mover's perspective, centipawns
	Move    rules.Move
	Nodes   uint64
	Elapsed time.Duration
}

// Engine is a search session: it owns the transposition cache and the
// killer/history tables, which live across move requests until explicitly
// cleared. Only one search may be in flight per Engine at a time.
type Engine struct {
	tt       *TranspositionTable
	orderer  *Orderer
	searcher *Searcher

	// OnInfo, when set, is called after every completed depth.
	OnInfo func(SearchInfo)
}

// NewEngine creates an engine with a transposition cache of the given size
// in megabytes.
func NewEngine(ttSizeMB int) *Engine {
	tt := NewTranspositionTable(ttSizeMB)
	orderer := NewOrderer()
	return &Engine{
		tt:       tt,
		orderer:  orderer,
		searcher: NewSearcher(tt, orderer),
	}
}

// FindBestMove searches pos under the given limits and returns the best
// move found, or ok=false when the side to move has no legal move (the
// caller distinguishes checkmate from stalemate via the rules engine).
// The position is borrowed and returned unchanged.
//
// Depth one always runs to completion so a near-zero budget still yields a
// legal move. With identical session state and a budget that does not
// truncate the search, the result is deterministic.
func (e *Engine) FindBestMove(pos *rules.Position, limits SearchLimits) (rules.Move, bool) {
	maxDepth := limits.Depth
	if maxDepth <= 0 || maxDepth >= MaxPly {
		maxDepth = MaxPly - 1
	}

	start := time.Now()
	var soft, hard time.Time
	if limits.MoveTime > 0 {
		soft = start.Add(limits.MoveTime * softBudgetPct / 100)
		hard = start.Add(limits.MoveTime * hardBudgetPct / 100)
	}

	e.searcher.begin(pos, hard)

	best := rules.NoMove
	bestScore := 0
	for depth := 1; depth <= maxDepth; depth++ {
		if depth > 1 && !soft.IsZero() && time.Now().After(soft) {
			break
		}

		move, score, any := e.searcher.searchRoot(depth, best)
		if any {
			best = move
			bestScore = score
			if e.OnInfo != nil {
				e.OnInfo(SearchInfo{
					Depth:   depth,
					Score:   bestScore,
					Move:    best,
					Nodes:   e.searcher.Nodes(),
					Elapsed: time.Since(start),
				})
			}
		}
		if e.searcher.Aborted() {
			break
		}
		// A forced mate needs no deeper confirmation.
		if bestScore > MateValue-MaxPly || bestScore < -MateValue+MaxPly {
			break
		}
	}

	return best, best != rules.NoMove
}

// Nodes returns the node count of the most recent search.
func (e *Engine) Nodes() uint64 { return e.searcher.Nodes() }

// CacheHitRate returns the transposition cache hit rate as a percentage.
func (e *Engine) CacheHitRate() float64 { return e.tt.HitRate() }

// Clear cold-starts the session: transposition cache, killers and history.
func (e *Engine) Clear() {
	e.tt.Clear()
	e.orderer.ClearKillers()
	e.orderer.ClearHistory()
}

// ClearHistory resets only the history heuristic, which otherwise
// accumulates across searches.
func (e *Engine) ClearHistory() {
	e.orderer.ClearHistory()
}

// ScoreToString renders a mover-relative score as pawns, or as a mate
// distance when the score is terminal.
func ScoreToString(score int) string {
	if score > MateValue-MaxPly {
		return "mate in " + strconv.Itoa((MateValue-score+1)/2)
	}
	if score < -MateValue+MaxPly {
		return "mated in " + strconv.Itoa((MateValue+score+1)/2)
	}
	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	return sign + strconv.Itoa(score/100) + "." + pad2(score%100)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
