package scoring

import "github.com/mcoot/redblue/internal/model"

// Deltas are the signed points awarded to each seat for one round
type Deltas struct {
	Player1 int
	Player2 int
}

// Base deltas before round multipliers
const (
	matchRed     = 3  // both RED
	matchBlue    = -3 // both BLUE
	mismatchRed  = -6 // the RED side of a mismatch
	mismatchBlue = 6  // the BLUE side of a mismatch

	// A seat that never chose is scored as the losing side of a mismatch
	absentPenalty = mismatchRed
	presentReward = mismatchBlue
	bothAbsent    = matchBlue

	doubledMultiplier = 2
)

// Service scores rounds. It has no state and no side effects.
type Service struct{}

// New creates a new ScoringService
func New() *Service {
	return &Service{}
}

// ScoreRound returns the deltas for a pair of choices in the given round.
// Either choice may be model.ChoiceNone when the round timed out.
func (s *Service) ScoreRound(round int, c1, c2 model.Choice) Deltas {
	d := baseDeltas(c1, c2)
	m := Multiplier(round)
	return Deltas{Player1: d.Player1 * m, Player2: d.Player2 * m}
}

// Multiplier returns the factor applied to a round's deltas
func Multiplier(round int) int {
	if round >= model.DoubledFromRound {
		return doubledMultiplier
	}
	return 1
}

func baseDeltas(c1, c2 model.Choice) Deltas {
	switch {
	case c1 == model.ChoiceNone && c2 == model.ChoiceNone:
		return Deltas{bothAbsent, bothAbsent}
	case c1 == model.ChoiceNone:
		return Deltas{absentPenalty, presentReward}
	case c2 == model.ChoiceNone:
		return Deltas{presentReward, absentPenalty}
	case c1 == model.ChoiceRed && c2 == model.ChoiceRed:
		return Deltas{matchRed, matchRed}
	case c1 == model.ChoiceBlue && c2 == model.ChoiceBlue:
		return Deltas{matchBlue, matchBlue}
	case c1 == model.ChoiceRed:
		return Deltas{mismatchRed, mismatchBlue}
	default:
		return Deltas{mismatchBlue, mismatchRed}
	}
}
