// Package rules adapts github.com/notnil/chess to the capability contract
// the search core consumes: legal move generation, paired apply/undo with
// stack discipline, terminal detection, attack queries and a move-order
// invariant position key.
package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/notnil/chess"
)

// node is one entry of the make/unmake stack. Legal moves are generated at
// most once per node and kept until the node is popped.
type node struct {
	pos    *chess.Position
	key    uint64
	clock  int // halfmove clock for the fifty-move rule
	moves  []Move
	byMove map[Move]*chess.Move
}

// Position is a mutable game state with a stack of applied moves. It is not
// safe for concurrent use. The zero value is not usable; construct with
// NewPosition or FromFEN.
type Position struct {
	stack []*node
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	p, err := FromFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if err != nil {
		panic(err) // the starting FEN always parses
	}
	return p
}

// FromFEN builds a position from Forsyth-Edwards notation.
func FromFEN(fen string) (*Position, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("rules: parse fen: %w", err)
	}
	game := chess.NewGame(opt)
	clock := 0
	if fields := strings.Fields(fen); len(fields) >= 5 {
		clock, err = strconv.Atoi(fields[4])
		if err != nil {
			return nil, fmt.Errorf("rules: parse halfmove clock: %w", err)
		}
	}
	cp := game.Position()
	return &Position{stack: []*node{{pos: cp, key: hashOf(cp), clock: clock}}}, nil
}

// hashOf keys the position by placement, side to move, castling rights and
// en-passant target. The clock and move-number fields are excluded so a
// repeated placement maps to the same key.
func hashOf(pos *chess.Position) uint64 {
	fields := strings.Fields(pos.String())
	if len(fields) > 4 {
		fields = fields[:4]
	}
	return xxhash.Sum64String(strings.Join(fields, " "))
}

func (p *Position) top() *node { return p.stack[len(p.stack)-1] }

func (n *node) ensureMoves() {
	if n.byMove != nil {
		return
	}
	valid := n.pos.ValidMoves()
	n.moves = make([]Move, 0, len(valid))
	n.byMove = make(map[Move]*chess.Move, len(valid))
	for _, cm := range valid {
		m := Move{
			From:  Square(cm.S1()),
			To:    Square(cm.S2()),
			Promo: pieceTypeFrom(cm.Promo()),
		}
		n.moves = append(n.moves, m)
		n.byMove[m] = cm
	}
}

// FEN renders the current state in Forsyth-Edwards notation.
func (p *Position) FEN() string { return p.top().pos.String() }

// Key returns a canonical 64-bit identity for the current state, stable
// across move orders that reach the same placement, side to move, castling
// rights and en-passant target.
func (p *Position) Key() uint64 { return p.top().key }

// SideToMove returns the color to move.
func (p *Position) SideToMove() Color { return colorFrom(p.top().pos.Turn()) }

// LegalMoves returns the legal moves for the side to move, in the rule
// engine's deterministic generation order. The returned slice is the
// caller's to reorder.
func (p *Position) LegalMoves() []Move {
	n := p.top()
	n.ensureMoves()
	out := make([]Move, len(n.moves))
	copy(out, n.moves)
	return out
}

// Apply plays m, which must come from LegalMoves for the current state.
// Every Apply must be paired with an Undo.
func (p *Position) Apply(m Move) {
	n := p.top()
	n.ensureMoves()
	cm, ok := n.byMove[m]
	if !ok {
		panic(fmt.Sprintf("rules: move %s not legal in %s", m, p.FEN()))
	}
	clock := n.clock + 1
	if p.IsCapture(m) || p.pieceTypeOn(m.From) == Pawn {
		clock = 0
	}
	next := n.pos.Update(cm)
	p.stack = append(p.stack, &node{pos: next, key: hashOf(next), clock: clock})
}

// Undo reverts the most recent Apply. It panics when called below the
// position the stack was constructed from.
func (p *Position) Undo() {
	if len(p.stack) == 1 {
		panic("rules: undo below root position")
	}
	p.stack[len(p.stack)-1] = nil
	p.stack = p.stack[:len(p.stack)-1]
}

// PieceAt reports the piece on sq, if any.
func (p *Position) PieceAt(sq Square) (PieceType, Color, bool) {
	piece := p.top().pos.Board().Piece(chess.Square(sq))
	if piece == chess.NoPiece {
		return NoPieceType, White, false
	}
	return pieceTypeFrom(piece.Type()), colorFrom(piece.Color()), true
}

func (p *Position) pieceTypeOn(sq Square) PieceType {
	t, _, _ := p.PieceAt(sq)
	return t
}

// IsCapture reports whether m takes an opposing piece, en passant included.
func (p *Position) IsCapture(m Move) bool {
	if _, c, occupied := p.PieceAt(m.To); occupied {
		return c != p.SideToMove()
	}
	// Pawn moving diagonally onto an empty square is en passant.
	return p.pieceTypeOn(m.From) == Pawn && m.From.File() != m.To.File()
}

// VictimType returns the piece type m captures, or NoPieceType for a quiet
// move. En-passant captures report Pawn.
func (p *Position) VictimType(m Move) PieceType {
	if t, c, occupied := p.PieceAt(m.To); occupied && c != p.SideToMove() {
		return t
	}
	if p.pieceTypeOn(m.From) == Pawn && m.From.File() != m.To.File() {
		return Pawn
	}
	return NoPieceType
}

// GivesCheck reports whether m checks the opponent after being applied.
func (p *Position) GivesCheck(m Move) bool {
	n := p.top()
	n.ensureMoves()
	cm, ok := n.byMove[m]
	return ok && cm.HasTag(chess.Check)
}

// IsCheckmate reports whether the side to move is checkmated.
func (p *Position) IsCheckmate() bool {
	return p.top().pos.Status() == chess.Checkmate
}

// IsStalemate reports whether the side to move has no move and is not in check.
func (p *Position) IsStalemate() bool {
	return p.top().pos.Status() == chess.Stalemate
}

// IsFiftyMoveRule reports whether a hundred half-moves have passed without a
// capture or pawn move.
func (p *Position) IsFiftyMoveRule() bool { return p.top().clock >= 100 }

// IsThreefoldRepetition reports whether the current placement has occurred
// three or more times along the applied-move line, the constructed root
// included.
func (p *Position) IsThreefoldRepetition() bool {
	key := p.top().key
	count := 0
	for _, n := range p.stack {
		if n.key == key {
			count++
		}
	}
	return count >= 3
}

// IsInsufficientMaterial reports whether neither side retains mating
// material: any pawn, rook or queen suffices, as do two or more minor
// pieces unless they are a lone bishop per side on equal-colored squares.
func (p *Position) IsInsufficientMaterial() bool {
	board := p.top().pos.Board()
	var minors int
	var bishopSquares []chess.Square
	var bishopColors []chess.Color
	for sq := chess.A1; sq <= chess.H8; sq++ {
		piece := board.Piece(sq)
		if piece == chess.NoPiece {
			continue
		}
		switch piece.Type() {
		case chess.Pawn, chess.Rook, chess.Queen:
			return false
		case chess.Knight:
			minors++
		case chess.Bishop:
			minors++
			bishopSquares = append(bishopSquares, sq)
			bishopColors = append(bishopColors, piece.Color())
		}
	}
	if minors <= 1 {
		return true
	}
	if minors == 2 && len(bishopSquares) == 2 && bishopColors[0] != bishopColors[1] {
		shade0 := (int(bishopSquares[0])/8 + int(bishopSquares[0])%8) % 2
		shade1 := (int(bishopSquares[1])/8 + int(bishopSquares[1])%8) % 2
		return shade0 == shade1
	}
	return false
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	stm := p.SideToMove()
	kingSq, ok := p.kingSquare(stm)
	if !ok {
		return false
	}
	return p.IsAttacked(stm.Other(), kingSq)
}

func (p *Position) kingSquare(c Color) (Square, bool) {
	for sq := Square(0); sq < 64; sq++ {
		if t, pc, occupied := p.PieceAt(sq); occupied && t == King && pc == c {
			return sq, true
		}
	}
	return 0, false
}

// MobilityCount returns the number of legal moves c would have in the
// current placement. For the side not on move the count is taken from the
// same placement with the turn flipped and the en-passant target cleared;
// it is zero when the side to move is in check, where no such flipped
// position exists.
func (p *Position) MobilityCount(c Color) int {
	if c == p.SideToMove() {
		n := p.top()
		n.ensureMoves()
		return len(n.moves)
	}
	if p.InCheck() {
		return 0
	}
	fields := strings.Fields(p.FEN())
	if len(fields) < 6 {
		return 0
	}
	if fields[1] == "w" {
		fields[1] = "b"
	} else {
		fields[1] = "w"
	}
	fields[3] = "-"
	opt, err := chess.FEN(strings.Join(fields, " "))
	if err != nil {
		return 0
	}
	return len(chess.NewGame(opt).ValidMoves())
}

// ParseUCI parses a move in coordinate notation and verifies it is legal in
// the current state.
func (p *Position) ParseUCI(s string) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return NoMove, fmt.Errorf("rules: bad uci move %q", s)
	}
	from, err := parseSquare(s[:2])
	if err != nil {
		return NoMove, err
	}
	to, err := parseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}
	m := Move{From: from, To: to}
	if len(s) == 5 {
		m.Promo, err = parsePromo(s[4])
		if err != nil {
			return NoMove, err
		}
	}
	n := p.top()
	n.ensureMoves()
	if _, ok := n.byMove[m]; !ok {
		return NoMove, fmt.Errorf("rules: move %s not legal in %s", m, p.FEN())
	}
	return m, nil
}
