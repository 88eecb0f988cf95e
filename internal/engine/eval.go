// Package engine implements the chess AI search core: static evaluation,
// move ordering, the transposition cache and time-bounded iterative
// deepening over the rules package.
package engine

import (
	"github.com/caissadev/caissa/internal/rules"
)

// Evaluation constants
const (
	PawnValue   = 100
	KnightValue = 320
	BishopValue = 330
	RookValue   = 500
	QueenValue  = 900

	// MateValue is the magnitude of a checkmate score. Draws score 0.
	MateValue = 10000
)

// Piece values indexed by rules.PieceType. The king carries no material
// value; its placement is scored purely through the piece-square tables.
var pieceValues = [rules.King + 1]int{
	rules.Pawn:   PawnValue,
	rules.Knight: KnightValue,
	rules.Bishop: BishopValue,
	rules.Rook:   RookValue,
	rules.Queen:  QueenValue,
	rules.King:   0,
}

// Centipawns per legal move of mobility advantage.
const mobilityWeight = 5

// Piece-Square Tables. Values are written visually, first row = rank 8.
// White pieces index with sq^56 (vertical mirror), black pieces with sq, so
// each side is scored from its own perspective before the terms combine.

var pawnPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 10, 25, 25, 10, 5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, -5, -10, 0, 0, -10, -5, 5,
	5, 10, 10, -20, -20, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightPST = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopPST = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, 10, 10, 10, 10, 5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	0, 0, 0, 5, 5, 0, 0, 0,
}

var queenPST = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-5, 0, 5, 5, 5, 5, 0, -5,
	0, 0, 5, 5, 5, 5, 0, -5,
	-10, 5, 5, 5, 5, 5, 0, -10,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

var kingMidgamePST = [64]int{
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	20, 20, 0, 0, 0, 0, 20, 20,
	20, 30, 10, 0, 0, 10, 30, 20,
}

var kingEndgamePST = [64]int{
	-50, -40, -30, -20, -20, -30, -40, -50,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-50, -30, -30, -30, -30, -30, -30, -50,
}

var piecePST = [rules.King + 1]*[64]int{
	rules.Pawn:   &pawnPST,
	rules.Knight: &knightPST,
	rules.Bishop: &bishopPST,
	rules.Rook:   &rookPST,
	rules.Queen:  &queenPST,
	rules.King:   &kingMidgamePST,
}

type pieceCounts struct {
	queens [2]int
	rooks  [2]int
	minors [2]int
}

// isEndgame classifies the position from piece counts. Endgame when either
// side has no queen, or when very little material remains overall.
func isEndgame(c pieceCounts) bool {
	if c.queens[rules.White] == 0 || c.queens[rules.Black] == 0 {
		return true
	}
	queens := c.queens[rules.White] + c.queens[rules.Black]
	rooks := c.rooks[rules.White] + c.rooks[rules.Black]
	minors := c.minors[rules.White] + c.minors[rules.Black]
	return queens <= 1 && rooks <= 2 && minors <= 1
}

// Evaluate scores the position in centipawns from White's perspective.
// White is the fixed reference side: positive favors White regardless of
// who is on move. Checkmate returns ±MateValue against the mated side;
// recognized draws return 0.
func Evaluate(pos *rules.Position) int {
	if pos.IsCheckmate() {
		if pos.SideToMove() == rules.White {
			return -MateValue
		}
		return MateValue
	}
	if pos.IsStalemate() || pos.IsInsufficientMaterial() ||
		pos.IsFiftyMoveRule() || pos.IsThreefoldRepetition() {
		return 0
	}

	type placed struct {
		sq    rules.Square
		t     rules.PieceType
		color rules.Color
	}
	var pieces []placed
	var counts pieceCounts
	for sq := rules.Square(0); sq < 64; sq++ {
		t, color, occupied := pos.PieceAt(sq)
		if !occupied {
			continue
		}
		pieces = append(pieces, placed{sq: sq, t: t, color: color})
		switch t {
		case rules.Queen:
			counts.queens[color]++
		case rules.Rook:
			counts.rooks[color]++
		case rules.Knight, rules.Bishop:
			counts.minors[color]++
		}
	}

	endgame := isEndgame(counts)
	score := 0
	for _, pc := range pieces {
		table := piecePST[pc.t]
		if pc.t == rules.King && endgame {
			table = &kingEndgamePST
		}
		if pc.color == rules.White {
			score += pieceValues[pc.t]
			score += table[pc.sq^56]
		} else {
			score -= pieceValues[pc.t]
			score -= table[pc.sq]
		}
	}

	score += mobilityWeight *
		(pos.MobilityCount(rules.White) - pos.MobilityCount(rules.Black))

	return score
}
