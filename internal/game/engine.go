package game

import (
	"math/rand"
	"time"
)

// BonusRules carries the configurable bonus thresholds. The defaults match
// the standard rules but rooms may be configured differently, so nothing
// here is hardcoded at call sites.
type BonusRules struct {
	UpperThreshold int
	UpperScore     int
	ExtraDicee     int
}

func DefaultBonusRules() BonusRules {
	return BonusRules{UpperThreshold: 63, UpperScore: 35, ExtraDicee: 100}
}

// ScoreResult describes the outcome of one scoring command.
type ScoreResult struct {
	Category          Category `json:"category"`
	Points            int      `json:"points"`
	UpperBonusAwarded bool     `json:"upper_bonus_awarded,omitempty"`
	ExtraDiceeAwarded bool     `json:"extra_dicee_awarded,omitempty"`
	Total             int      `json:"total"`
	GameOver          bool     `json:"game_over,omitempty"`
	NextPlayer        string   `json:"next_player,omitempty"`
}

// Engine validates and applies turn commands against a State. It holds no
// per-room state itself; one Engine can serve many rooms.
type Engine struct {
	Oracle  ScoringOracle
	Bonus   BonusRules
	RollDie func() int
}

func NewEngine(oracle ScoringOracle, bonus BonusRules, rollDie func() int) *Engine {
	if rollDie == nil {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		rollDie = func() int { return rng.Intn(6) + 1 }
	}
	return &Engine{Oracle: oracle, Bonus: bonus, RollDie: rollDie}
}

// Roll consumes one of the turn's rolls, re-randomizing every die whose kept
// bit is false. An explicit keep mask, if given, replaces the mask before the
// roll. The third roll forces the scoring phase.
func (e *Engine) Roll(s *State, identity string, keep *[DiceCount]bool) error {
	if err := requireTurn(s, identity); err != nil {
		return err
	}
	if s.RollsRemaining <= 0 {
		return ErrNoRollsLeft
	}
	if s.Phase != PhaseRolling && s.Phase != PhaseDeciding {
		return ErrInvalidPhase
	}
	if keep != nil && s.CurrentDice != nil {
		s.KeptMask = *keep
	}
	e.rollDice(s)
	return nil
}

func (e *Engine) rollDice(s *State) {
	var dice [DiceCount]int
	first := s.CurrentDice == nil
	if !first {
		dice = *s.CurrentDice
	}
	for i := range dice {
		if first || !s.KeptMask[i] {
			dice[i] = e.RollDie()
		}
	}
	s.CurrentDice = &dice
	s.RollsRemaining--
	if s.RollsRemaining == 0 {
		s.Phase = PhaseScoring
	} else {
		s.Phase = PhaseDeciding
	}
}

// Keep toggles the kept bit of each listed die. Only valid while deciding.
func (e *Engine) Keep(s *State, identity string, indices []int) error {
	if err := requireTurn(s, identity); err != nil {
		return err
	}
	if s.Phase != PhaseDeciding {
		return ErrInvalidPhase
	}
	for _, i := range indices {
		if i < 0 || i >= DiceCount {
			return ErrBadKeepIndex
		}
	}
	for _, i := range indices {
		s.KeptMask[i] = !s.KeptMask[i]
	}
	return nil
}

// Score writes the chosen category exactly once, applies bonus rules and
// advances the turn. A filled category is rejected without mutation.
func (e *Engine) Score(s *State, identity string, c Category) (ScoreResult, error) {
	if err := requireTurn(s, identity); err != nil {
		return ScoreResult{}, err
	}
	if s.Phase != PhaseDeciding && s.Phase != PhaseScoring {
		return ScoreResult{}, ErrInvalidPhase
	}
	return e.applyScore(s, identity, c)
}

func (e *Engine) applyScore(s *State, identity string, c Category) (ScoreResult, error) {
	p := s.Players[identity]
	if p == nil {
		return ScoreResult{}, ErrUnknownPlayer
	}
	if s.CurrentDice == nil {
		return ScoreResult{}, ErrInvalidPhase
	}
	dice := *s.CurrentDice
	points := e.Oracle.Score(dice, c)
	if err := p.Scorecard.SetScore(c, points); err != nil {
		return ScoreResult{}, err
	}
	res := ScoreResult{Category: c, Points: points}
	if c.IsUpper() && p.Scorecard.UpperBonus == 0 && p.Scorecard.UpperTotal() >= e.Bonus.UpperThreshold {
		p.Scorecard.UpperBonus = e.Bonus.UpperScore
		res.UpperBonusAwarded = true
	}
	if c != CategoryDicee && IsFiveOfAKind(dice) {
		if v := p.Scorecard.Slots[CategoryDicee]; v != nil && *v > 0 {
			p.Scorecard.ExtraDiceeBonus += e.Bonus.ExtraDicee
			res.ExtraDiceeAwarded = true
		}
	}
	p.TurnsTaken++
	if p.Scorecard.Complete() {
		p.CompletedOnTurn = s.TurnNumber
	}
	res.Total = p.Scorecard.Total()
	e.advance(s)
	res.GameOver = s.Phase == PhaseGameOver
	res.NextPlayer = s.CurrentPlayer()
	return res, nil
}

// AutoScore resolves an idle current player's turn: roll once if they never
// rolled, then score the lowest-value open category for the dice on the table.
func (e *Engine) AutoScore(s *State) (ScoreResult, error) {
	identity := s.CurrentPlayer()
	if identity == "" {
		return ScoreResult{}, ErrInvalidPhase
	}
	p := s.Players[identity]
	if p == nil {
		return ScoreResult{}, ErrUnknownPlayer
	}
	if s.CurrentDice == nil {
		if s.Phase != PhaseRolling {
			return ScoreResult{}, ErrInvalidPhase
		}
		e.rollDice(s)
	}
	dice := *s.CurrentDice
	open := p.Scorecard.OpenCategories()
	if len(open) == 0 {
		return ScoreResult{}, ErrCategoryScored
	}
	pick := open[0]
	best := e.Oracle.Score(dice, pick)
	for _, c := range open[1:] {
		if v := e.Oracle.Score(dice, c); v < best {
			pick, best = c, v
		}
	}
	return e.applyScore(s, identity, pick)
}

// AddPlayer seats a late joiner at the end of the order with a fresh
// scorecard. No-op when the identity already plays.
func (e *Engine) AddPlayer(s *State, identity string) {
	if _, ok := s.Players[identity]; ok {
		return
	}
	s.Players[identity] = &PlayerState{Scorecard: NewScorecard()}
	s.PlayerOrder = append(s.PlayerOrder, identity)
}

// RemovePlayer drops an expired seat from the game. The scorecard goes with
// it; remaining players keep their relative order.
func (e *Engine) RemovePlayer(s *State, identity string) {
	idx := -1
	for i, id := range s.PlayerOrder {
		if id == identity {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	wasCurrent := idx == s.CurrentPlayerIndex
	s.PlayerOrder = append(s.PlayerOrder[:idx], s.PlayerOrder[idx+1:]...)
	delete(s.Players, identity)
	if len(s.PlayerOrder) == 0 {
		s.Phase = PhaseGameOver
		return
	}
	if idx < s.CurrentPlayerIndex {
		s.CurrentPlayerIndex--
	}
	if s.CurrentPlayerIndex >= len(s.PlayerOrder) {
		s.CurrentPlayerIndex = 0
	}
	if s.Complete() {
		s.Phase = PhaseGameOver
		return
	}
	if wasCurrent && s.Phase != PhaseGameOver {
		s.CurrentDice = nil
		s.KeptMask = [DiceCount]bool{}
		s.RollsRemaining = RollsPerTurn
		s.Phase = PhaseRolling
	}
}

func (e *Engine) advance(s *State) {
	s.CurrentDice = nil
	s.KeptMask = [DiceCount]bool{}
	s.RollsRemaining = RollsPerTurn
	if s.Complete() {
		s.Phase = PhaseGameOver
		return
	}
	n := len(s.PlayerOrder)
	for i := 0; i < n; i++ {
		s.CurrentPlayerIndex = (s.CurrentPlayerIndex + 1) % n
		s.TurnNumber++
		if s.CurrentPlayerIndex == 0 {
			s.RoundNumber++
		}
		if !s.Players[s.PlayerOrder[s.CurrentPlayerIndex]].Scorecard.Complete() {
			break
		}
	}
	s.Phase = PhaseRolling
}

func requireTurn(s *State, identity string) error {
	switch s.Phase {
	case PhaseWaiting, PhaseGameOver:
		return ErrInvalidPhase
	}
	if s.CurrentPlayer() != identity {
		return ErrNotYourTurn
	}
	return nil
}
