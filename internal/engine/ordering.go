package engine

import (
	"sort"

	"github.com/caissadev/caissa/internal/rules"
)

// Move ordering priority bands. The hint from the transposition cache beats
// everything, killers beat everything else, and captures sit above any
// history score a quiet move can accumulate.
const (
	hintScore    = 1 << 20
	killerScore0 = 1<<19 + 1 // most recent killer
	killerScore1 = 1 << 19
	captureBase  = 1 << 14
)

// Flat ordering bonuses.
const (
	undefendedCaptureBonus = 50
	checkBonus             = 30
	centralPawnBonus       = 10
)

// MVV-LVA scores indexed by [victim][aggressor]: the most valuable victim
// taken by the least valuable aggressor ranks highest.
var mvvLva = [rules.King + 1][rules.King + 1]int{
	//             -   P   N   B   R   Q   K  (aggressor)
	rules.Pawn:   {0, 15, 14, 13, 12, 11, 10},
	rules.Knight: {0, 25, 24, 23, 22, 21, 20},
	rules.Bishop: {0, 35, 34, 33, 32, 31, 30},
	rules.Rook:   {0, 45, 44, 43, 42, 41, 40},
	rules.Queen:  {0, 55, 54, 53, 52, 51, 50},
}

// Orderer ranks legal moves so the most promising are searched first. It
// owns the killer and history tables the search core feeds on cutoffs.
type Orderer struct {
	// Two killers per ply, most recent first. Only quiet cutoff moves.
	killers [MaxPly][2]rules.Move

	// History heuristic indexed by [from][to], bumped by depth² on cutoffs.
	history [64][64]int
}

// NewOrderer creates an orderer with empty tables.
func NewOrderer() *Orderer {
	return &Orderer{}
}

// Order sorts moves in place, best candidate first. hint is the cached best
// move for this position (NoMove when absent). The sort is stable, so ties
// keep the rule engine's generation order and the result is deterministic.
func (o *Orderer) Order(pos *rules.Position, moves []rules.Move, ply int, hint rules.Move) []rules.Move {
	type scored struct {
		move  rules.Move
		score int
	}
	ranked := make([]scored, len(moves))
	for i, m := range moves {
		ranked[i] = scored{move: m, score: o.ScoreMove(pos, m, ply, hint)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	for i, r := range ranked {
		moves[i] = r.move
	}
	return moves
}

// ScoreMove returns the ordering score for a single move; higher is earlier.
func (o *Orderer) ScoreMove(pos *rules.Position, m rules.Move, ply int, hint rules.Move) int {
	if m == hint {
		return hintScore
	}
	if ply < MaxPly {
		if m == o.killers[ply][0] {
			return killerScore0
		}
		if m == o.killers[ply][1] {
			return killerScore1
		}
	}

	score := 0
	mover := pos.SideToMove()
	if victim := pos.VictimType(m); victim != rules.NoPieceType {
		aggressor, _, _ := pos.PieceAt(m.From)
		score = captureBase + mvvLva[victim][aggressor]
		score += pieceValues[victim] - pieceValues[aggressor]/100
		if !pos.IsAttacked(mover.Other(), m.To) {
			score += undefendedCaptureBonus
		}
	} else {
		// Quiet move: history heuristic, capped below the capture band.
		h := o.history[m.From][m.To]
		if h >= captureBase {
			h = captureBase - 1
		}
		score = h
	}

	if m.Promo != rules.NoPieceType {
		score += pieceValues[m.Promo] - PawnValue
	}
	if pos.GivesCheck(m) {
		score += checkBonus
	}

	if t, _, occupied := pos.PieceAt(m.From); occupied && t == rules.Pawn {
		if f := m.From.File(); f == 3 || f == 4 {
			score += centralPawnBonus
		}
		// Advanced pushes score by proximity to promotion.
		if rank := m.To.Rank(); mover == rules.White && rank >= 5 {
			score += rank - 4
		} else if mover == rules.Black && rank <= 2 {
			score += 3 - rank
		}
	}

	return score
}

// RecordKiller installs a quiet cutoff move as the most recent killer for
// its ply, demoting the previous one.
func (o *Orderer) RecordKiller(m rules.Move, ply int) {
	if ply >= MaxPly || o.killers[ply][0] == m {
		return
	}
	o.killers[ply][1] = o.killers[ply][0]
	o.killers[ply][0] = m
}

// BoostHistory credits a cutoff move with depth² in the history table.
func (o *Orderer) BoostHistory(m rules.Move, depth int) {
	o.history[m.From][m.To] += depth * depth
}

// HistoryScore returns the accumulated history score for a move.
func (o *Orderer) HistoryScore(m rules.Move) int {
	return o.history[m.From][m.To]
}

// ClearKillers empties the killer table. Called at the start of every
// top-level search.
func (o *Orderer) ClearKillers() {
	for i := range o.killers {
		o.killers[i][0] = rules.NoMove
		o.killers[i][1] = rules.NoMove
	}
}

// ClearHistory empties the history table. History otherwise persists across
// searches within a session.
func (o *Orderer) ClearHistory() {
	for i := range o.history {
		for j := range o.history[i] {
			o.history[i][j] = 0
		}
	}
}
