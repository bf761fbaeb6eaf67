package position

import (
	"fmt"
	"strconv"
	"strings"
)

// StartposSFEN is the SFEN string for the standard initial position.
const StartposSFEN = "lnsgkgsnl/1r5b1/ppppppppp/9/9/9/PPPPPPPPP/1B5R1/LNSGKGSNL b - 1"

var sfenLetters = map[byte]PieceType{
	'P': Pawn, 'L': Lance, 'N': Knight, 'S': Silver, 'G': Gold,
	'B': Bishop, 'R': Rook, 'K': King,
}

// FromSFEN parses a SFEN position string into a Position.
func FromSFEN(sfen string) (Position, error) {
	fields := strings.Fields(sfen)
	if len(fields) < 3 {
		return Position{}, fmt.Errorf("position: malformed sfen %q: want at least 3 fields", sfen)
	}

	var p Position
	p.kingSquares = [2]Square{NoSquare, NoSquare}

	rows := strings.Split(fields[0], "/")
	if len(rows) != 9 {
		return Position{}, fmt.Errorf("position: malformed sfen board %q: want 9 ranks", fields[0])
	}
	for r, row := range rows {
		f := 0
		promo := false
		for i := 0; i < len(row); i++ {
			ch := row[i]
			switch {
			case ch == '+':
				promo = true
			case ch >= '1' && ch <= '9':
				n := int(ch - '0')
				f += n
			default:
				letter := byte(strings.ToUpper(string(ch))[0])
				pt, ok := sfenLetters[letter]
				if !ok {
					return Position{}, fmt.Errorf("position: unknown piece letter %q in sfen", string(ch))
				}
				if promo {
					pt = pt.Promoted()
					promo = false
				}
				c := Black
				if ch >= 'a' && ch <= 'z' {
					c = White
				}
				if f > 8 {
					return Position{}, fmt.Errorf("position: sfen rank %d overflows board", r)
				}
				p.mailbox[NewSquare(f, r)] = Piece{Type: pt, Owner: c}
				f++
			}
		}
	}

	switch fields[1] {
	case "b":
		p.stm = Black
	case "w":
		p.stm = White
	default:
		return Position{}, fmt.Errorf("position: unknown side to move %q", fields[1])
	}

	if fields[2] != "-" {
		if err := parseHands(&p, fields[2]); err != nil {
			return Position{}, err
		}
	}

	p.moveCount = 1
	if len(fields) >= 4 {
		if n, err := strconv.Atoi(fields[3]); err == nil {
			p.moveCount = uint32(n)
		}
	}

	p.findKings()
	p.regenKey()
	return p, nil
}

func parseHands(p *Position, s string) error {
	count := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch >= '1' && ch <= '9' {
			count = count*10 + int(ch-'0')
			continue
		}
		letter := byte(strings.ToUpper(string(ch))[0])
		pt, ok := sfenLetters[letter]
		if !ok || pt == King {
			return fmt.Errorf("position: unknown hand piece letter %q in sfen", string(ch))
		}
		c := Black
		if ch >= 'a' && ch <= 'z' {
			c = White
		}
		if count == 0 {
			count = 1
		}
		for n := 0; n < count; n++ {
			p.hands[c].Increment(pt)
		}
		count = 0
	}
	return nil
}
