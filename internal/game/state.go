package game

// Phase is the sub-phase of the current turn.
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhaseRolling  Phase = "rolling"
	PhaseDeciding Phase = "deciding"
	PhaseScoring  Phase = "scoring"
	PhaseGameOver Phase = "game_over"
)

const (
	// RollsPerTurn is the number of rolls a player gets within one turn.
	RollsPerTurn = 3

	// DiceCount is the number of dice in play.
	DiceCount = 5
)

// PlayerState is one player's slice of the game.
type PlayerState struct {
	Scorecard  Scorecard `json:"scorecard"`
	TurnsTaken int       `json:"turns_taken"`
	// CompletedOnTurn is the global turn number on which the 13th slot was
	// filled; 0 until the card is complete. Used for ranking tie-breaks.
	CompletedOnTurn int `json:"completed_on_turn,omitempty"`
}

// State is the authoritative game state for one room. It round-trips through
// JSON unchanged; the players map is keyed by string identity on purpose.
type State struct {
	Phase              Phase                   `json:"phase"`
	CurrentPlayerIndex int                     `json:"current_player_index"`
	TurnNumber         int                     `json:"turn_number"`
	RoundNumber        int                     `json:"round_number"`
	PlayerOrder        []string                `json:"player_order"`
	Players            map[string]*PlayerState `json:"players"`

	CurrentDice    *[DiceCount]int `json:"current_dice"`
	KeptMask       [DiceCount]bool `json:"kept_mask"`
	RollsRemaining int             `json:"rolls_remaining"`
}

// NewState builds a fresh game for the given turn order.
func NewState(order []string) *State {
	players := make(map[string]*PlayerState, len(order))
	for _, id := range order {
		players[id] = &PlayerState{Scorecard: NewScorecard()}
	}
	return &State{
		Phase:          PhaseRolling,
		TurnNumber:     1,
		RoundNumber:    1,
		PlayerOrder:    append([]string(nil), order...),
		Players:        players,
		RollsRemaining: RollsPerTurn,
	}
}

// CurrentPlayer returns the identity whose turn it is, or "" once the game is
// over or the order is empty.
func (s *State) CurrentPlayer() string {
	if s.Phase == PhaseGameOver || len(s.PlayerOrder) == 0 {
		return ""
	}
	return s.PlayerOrder[s.CurrentPlayerIndex%len(s.PlayerOrder)]
}

// Complete reports whether every player's card is filled.
func (s *State) Complete() bool {
	if len(s.PlayerOrder) == 0 {
		return false
	}
	for _, id := range s.PlayerOrder {
		p := s.Players[id]
		if p == nil || !p.Scorecard.Complete() {
			return false
		}
	}
	return true
}
