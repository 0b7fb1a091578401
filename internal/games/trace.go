package games

// GuessKind distinguishes the first guess of a board from the rest.
type GuessKind string

const (
	GuessColor       GuessKind = "color"
	GuessHigherLower GuessKind = "higher_lower"
)

// Step describes one guess. For color guesses Guess is the guessed color
// (+1/-1); for higher/lower guesses it is +1 for higher and -1 for lower.
type Step struct {
	Deck     int       `json:"deck"`
	Position int       `json:"position"`
	Kind     GuessKind `json:"kind"`
	Signal   float64   `json:"signal"`
	Pivot    int       `json:"pivot,omitempty"`
	Guess    int       `json:"guess"`
	TieBreak bool      `json:"tie_break,omitempty"`
	Previous Card      `json:"previous"`
	Card     Card      `json:"card"`
	Correct  bool      `json:"correct"`
}

// Tracer observes a trial as it is played.
type Tracer interface {
	Guess(step Step)
	// Reshuffle is called after deck number deck was built and the
	// carried board cards were removed from it.
	Reshuffle(deck int, carried []Card)
}

// Recorder is a Tracer that keeps every event in memory.
type Recorder struct {
	Steps      []Step
	Reshuffles []ReshuffleEvent
}

// ReshuffleEvent records one deck rebuild.
type ReshuffleEvent struct {
	Deck    int    `json:"deck"`
	Carried []Card `json:"carried"`
}

func (r *Recorder) Guess(step Step) {
	r.Steps = append(r.Steps, step)
}

func (r *Recorder) Reshuffle(deck int, carried []Card) {
	r.Reshuffles = append(r.Reshuffles, ReshuffleEvent{
		Deck:    deck,
		Carried: append([]Card(nil), carried...),
	})
}
