package scoring

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/redblue/internal/model"
)

type ServiceSuite struct {
	suite.Suite
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.service = New()
}

func (s *ServiceSuite) TestChoiceTable() {
	red, blue := model.ChoiceRed, model.ChoiceBlue

	tests := []struct {
		name   string
		c1, c2 model.Choice
		normal Deltas
	}{
		{"red red", red, red, Deltas{3, 3}},
		{"red blue", red, blue, Deltas{-6, 6}},
		{"blue red", blue, red, Deltas{6, -6}},
		{"blue blue", blue, blue, Deltas{-3, -3}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			for round := 1; round <= 8; round++ {
				s.Equal(tt.normal, s.service.ScoreRound(round, tt.c1, tt.c2), "round %d", round)
			}
			doubled := Deltas{tt.normal.Player1 * 2, tt.normal.Player2 * 2}
			s.Equal(doubled, s.service.ScoreRound(9, tt.c1, tt.c2))
			s.Equal(doubled, s.service.ScoreRound(10, tt.c1, tt.c2))
		})
	}
}

func (s *ServiceSuite) TestMissingChoiceIsForcedLoss() {
	s.Equal(Deltas{-6, 6}, s.service.ScoreRound(1, model.ChoiceNone, model.ChoiceBlue))
	s.Equal(Deltas{6, -6}, s.service.ScoreRound(3, model.ChoiceRed, model.ChoiceNone))
	s.Equal(Deltas{-12, 12}, s.service.ScoreRound(10, model.ChoiceNone, model.ChoiceRed))
}

func (s *ServiceSuite) TestBothMissing() {
	s.Equal(Deltas{-3, -3}, s.service.ScoreRound(2, model.ChoiceNone, model.ChoiceNone))
	s.Equal(Deltas{-6, -6}, s.service.ScoreRound(9, model.ChoiceNone, model.ChoiceNone))
}

func (s *ServiceSuite) TestScoringIsSymmetricInSeats() {
	choices := []model.Choice{model.ChoiceRed, model.ChoiceBlue, model.ChoiceNone}
	for _, a := range choices {
		for _, b := range choices {
			ab := s.service.ScoreRound(5, a, b)
			ba := s.service.ScoreRound(5, b, a)
			s.Equal(ab.Player1, ba.Player2)
			s.Equal(ab.Player2, ba.Player1)
		}
	}
}

func (s *ServiceSuite) TestMultiplier() {
	s.Equal(1, Multiplier(1))
	s.Equal(1, Multiplier(8))
	s.Equal(2, Multiplier(9))
	s.Equal(2, Multiplier(10))
}
