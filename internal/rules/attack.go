package rules

import "github.com/notnil/chess"

var knightOffsets = [8][2]int{
	{1, 2}, {2, 1}, {2, -1}, {1, -2},
	{-1, -2}, {-2, -1}, {-2, 1}, {-1, 2},
}

var kingOffsets = [8][2]int{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

var rookRays = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
var bishopRays = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}

// IsAttacked reports whether sq is attacked by any piece of the given color.
// Pins are ignored: a piece bearing on the square counts even if moving it
// would expose its own king.
func (p *Position) IsAttacked(by Color, sq Square) bool {
	board := p.top().pos.Board()
	file, rank := sq.File(), sq.Rank()

	has := func(f, r int, want PieceType) bool {
		if f < 0 || f > 7 || r < 0 || r > 7 {
			return false
		}
		piece := board.Piece(chess.Square(r*8 + f))
		return piece != chess.NoPiece &&
			colorFrom(piece.Color()) == by &&
			pieceTypeFrom(piece.Type()) == want
	}

	// Pawns attack one rank forward; the attacker therefore sits one rank
	// behind the target from its own point of view.
	pawnRank := rank - 1
	if by == Black {
		pawnRank = rank + 1
	}
	if has(file-1, pawnRank, Pawn) || has(file+1, pawnRank, Pawn) {
		return true
	}

	for _, off := range knightOffsets {
		if has(file+off[0], rank+off[1], Knight) {
			return true
		}
	}
	for _, off := range kingOffsets {
		if has(file+off[0], rank+off[1], King) {
			return true
		}
	}

	slider := func(rays [4][2]int, want PieceType) bool {
		for _, ray := range rays {
			f, r := file+ray[0], rank+ray[1]
			for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
				piece := board.Piece(chess.Square(r*8 + f))
				if piece != chess.NoPiece {
					if colorFrom(piece.Color()) == by {
						t := pieceTypeFrom(piece.Type())
						if t == want || t == Queen {
							return true
						}
					}
					break
				}
				f += ray[0]
				r += ray[1]
			}
		}
		return false
	}

	return slider(rookRays, Rook) || slider(bishopRays, Bishop)
}
