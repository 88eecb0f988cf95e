package engine

import (
	"time"

	"github.com/caissadev/caissa/internal/rules"
)

// Search constants
const (
	Infinity = 30000
	MaxPly   = 128
)

// How often the recursion checks the clock, in visited nodes.
const timeCheckInterval = 1024

// Searcher runs the recursive negamax/alpha-beta traversal. It borrows the
// caller's position for the duration of a search, pairing every Apply with
// an Undo, and shares one transposition table and one set of heuristic
// tables across all nodes of the session.
type Searcher struct {
	pos     *rules.Position
	tt      *TranspositionTable
	orderer *Orderer

	nodes        uint64
	hardDeadline time.Time
	aborted      bool
}

// NewSearcher creates a searcher over shared session state.
func NewSearcher(tt *TranspositionTable, orderer *Orderer) *Searcher {
	return &Searcher{tt: tt, orderer: orderer}
}

// Nodes returns the number of nodes visited since the last begin.
func (s *Searcher) Nodes() uint64 { return s.nodes }

// Aborted reports whether the last search ran out of time mid-depth.
func (s *Searcher) Aborted() bool { return s.aborted }

// begin prepares the searcher for one iterative-deepening call.
func (s *Searcher) begin(pos *rules.Position, hardDeadline time.Time) {
	s.pos = pos
	s.nodes = 0
	s.aborted = false
	s.hardDeadline = hardDeadline
	s.orderer.ClearKillers()
}

// searchRoot runs one full-window alpha-beta pass at the given depth.
// prevBest, the best move of the previous iteration, is the ordering hint.
// It reports the best move and score, and whether at least one move was
// fully evaluated (a partially completed depth still yields a usable move).
func (s *Searcher) searchRoot(depth int, prevBest rules.Move) (rules.Move, int, bool) {
	moves := s.pos.LegalMoves()
	if len(moves) == 0 {
		return rules.NoMove, 0, false
	}
	s.orderer.Order(s.pos, moves, 0, prevBest)

	alpha, beta := -Infinity, Infinity
	best := -Infinity
	bestMove := rules.NoMove

	for _, m := range moves {
		s.pos.Apply(m)
		score := -s.negamax(depth-1, -beta, -alpha, 1)
		s.pos.Undo()
		if s.aborted {
			break
		}
		if score > best {
			best = score
			bestMove = m
		}
		if best > alpha {
			alpha = best
		}
	}

	if bestMove == rules.NoMove {
		return rules.NoMove, 0, false
	}
	if !s.aborted {
		s.tt.Store(s.pos.Key(), depth, scoreToTT(best, 0), bestMove)
	}
	return bestMove, best, true
}

// negamax returns the score of the current position from the perspective of
// the side to move, searching depth plies ahead within the (alpha, beta)
// window. ply is the distance from the root.
func (s *Searcher) negamax(depth, alpha, beta, ply int) int {
	pos := s.pos

	// Terminal positions score immediately: it is always the mover who is
	// checkmated here, and shorter mates score worse for the mated side.
	if pos.IsCheckmate() {
		return -(MateValue - ply)
	}
	if pos.IsStalemate() || pos.IsInsufficientMaterial() ||
		pos.IsFiftyMoveRule() || pos.IsThreefoldRepetition() {
		return 0
	}

	if depth <= 0 {
		s.nodes++
		return s.evalSideToMove()
	}

	key := pos.Key()
	entry, found := s.tt.Probe(key)
	if found && int(entry.Depth) >= depth {
		return scoreFromTT(int(entry.Score), ply)
	}

	s.nodes++
	if s.nodes%timeCheckInterval == 0 && !s.hardDeadline.IsZero() &&
		time.Now().After(s.hardDeadline) {
		s.aborted = true
		return alpha
	}

	moves := pos.LegalMoves()
	if len(moves) == 0 {
		// No moves and not caught above: mate when in check, else stalemate.
		if pos.InCheck() {
			return -(MateValue - ply)
		}
		return 0
	}

	hint := rules.NoMove
	if found {
		hint = entry.BestMove
	}
	s.orderer.Order(pos, moves, ply, hint)

	best := -Infinity
	bestMove := rules.NoMove
	for _, m := range moves {
		quiet := !pos.IsCapture(m) && m.Promo == rules.NoPieceType

		pos.Apply(m)
		score := -s.negamax(depth-1, -beta, -alpha, ply+1)
		pos.Undo()
		if s.aborted {
			return alpha
		}

		if score > best {
			best = score
			bestMove = m
		}
		if best > alpha {
			alpha = best
		}
		if alpha >= beta {
			if quiet {
				s.orderer.RecordKiller(m, ply)
				s.orderer.BoostHistory(m, depth)
			}
			break
		}
	}

	s.tt.Store(key, depth, scoreToTT(best, ply), bestMove)
	return best
}

// evalSideToMove adapts the fixed-perspective evaluator to negamax's
// mover-relative convention.
func (s *Searcher) evalSideToMove() int {
	score := Evaluate(s.pos)
	if s.pos.SideToMove() == rules.Black {
		return -score
	}
	return score
}
