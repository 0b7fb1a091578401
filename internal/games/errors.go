package games

import "errors"

var (
	ErrInvalidBoardSize   = errors.New("board size must be positive")
	ErrBoardExceedsDeck   = errors.New("board size must be smaller than the deck")
	ErrInvalidDenominator = errors.New("unknown denominator mode")
	ErrInvalidMaxDecks    = errors.New("max decks must not be negative")
	ErrDrawExceedsDeck    = errors.New("draw exceeds remaining deck")
)
