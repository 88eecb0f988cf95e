package rules

import (
	"fmt"

	"github.com/notnil/chess"
)

// Color identifies a side.
type Color uint8

const (
	White Color = iota
	Black
)

// Other returns the opposing color.
func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// PieceType identifies a kind of piece.
type PieceType uint8

const (
	NoPieceType PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var pieceTypeLetters = [King + 1]byte{0, 'p', 'n', 'b', 'r', 'q', 'k'}

// Square indexes a board square, a1=0 .. h8=63, rank-major.
type Square uint8

// NewSquare builds a square from file (0=a) and rank (0=1) indices.
func NewSquare(file, rank int) Square {
	return Square(rank*8 + file)
}

// File returns the file index, 0 for the a-file.
func (s Square) File() int { return int(s) & 7 }

// Rank returns the rank index, 0 for the first rank.
func (s Square) Rank() int { return int(s) >> 3 }

func (s Square) String() string {
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}

// Move identifies a transition between positions. It is a comparable value:
// two Moves are the same move exactly when from, to and promotion match.
// The zero value NoMove is never a legal move.
type Move struct {
	From  Square
	To    Square
	Promo PieceType
}

// NoMove is the absent move.
var NoMove = Move{}

// UCI renders the move in coordinate notation (e2e4, e7e8q).
func (m Move) UCI() string {
	s := m.From.String() + m.To.String()
	if m.Promo != NoPieceType {
		s += string(pieceTypeLetters[m.Promo])
	}
	return s
}

func (m Move) String() string { return m.UCI() }

func pieceTypeFrom(t chess.PieceType) PieceType {
	switch t {
	case chess.Pawn:
		return Pawn
	case chess.Knight:
		return Knight
	case chess.Bishop:
		return Bishop
	case chess.Rook:
		return Rook
	case chess.Queen:
		return Queen
	case chess.King:
		return King
	}
	return NoPieceType
}

func colorFrom(c chess.Color) Color {
	if c == chess.White {
		return White
	}
	return Black
}

func parseSquare(s string) (Square, error) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return 0, fmt.Errorf("rules: bad square %q", s)
	}
	return NewSquare(int(s[0]-'a'), int(s[1]-'1')), nil
}

func parsePromo(b byte) (PieceType, error) {
	switch b {
	case 'q':
		return Queen, nil
	case 'r':
		return Rook, nil
	case 'b':
		return Bishop, nil
	case 'n':
		return Knight, nil
	}
	return NoPieceType, fmt.Errorf("rules: bad promotion piece %q", string(b))
}
