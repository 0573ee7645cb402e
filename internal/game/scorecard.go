package game

// Scorecard tracks the 13 category slots plus bonus accumulators for one
// player. Slots are append-only: a category goes nil -> value exactly once.
type Scorecard struct {
	Slots           map[Category]*int `json:"slots"`
	UpperBonus      int               `json:"upper_bonus"`
	ExtraDiceeBonus int               `json:"extra_dicee_bonus"`
}

func NewScorecard() Scorecard {
	slots := make(map[Category]*int, len(Categories))
	for _, c := range Categories {
		slots[c] = nil
	}
	return Scorecard{Slots: slots}
}

// Filled reports whether category c has been scored.
func (sc *Scorecard) Filled(c Category) bool {
	v, ok := sc.Slots[c]
	return ok && v != nil
}

// SetScore writes a slot once. Writing a filled slot returns ErrCategoryScored
// and leaves the card unchanged.
func (sc *Scorecard) SetScore(c Category, score int) error {
	if _, ok := sc.Slots[c]; !ok {
		return ErrUnknownCategory
	}
	if sc.Filled(c) {
		return ErrCategoryScored
	}
	v := score
	sc.Slots[c] = &v
	return nil
}

// UpperTotal sums the filled upper-section slots.
func (sc *Scorecard) UpperTotal() int {
	total := 0
	for _, c := range UpperCategories {
		if v := sc.Slots[c]; v != nil {
			total += *v
		}
	}
	return total
}

// Total is the sum of every filled slot plus both bonuses.
func (sc *Scorecard) Total() int {
	total := sc.UpperBonus + sc.ExtraDiceeBonus
	for _, v := range sc.Slots {
		if v != nil {
			total += *v
		}
	}
	return total
}

// Complete reports whether all 13 slots are filled.
func (sc *Scorecard) Complete() bool {
	for _, c := range Categories {
		if !sc.Filled(c) {
			return false
		}
	}
	return true
}

// OpenCategories returns the unfilled categories in scorecard order.
func (sc *Scorecard) OpenCategories() []Category {
	open := make([]Category, 0, len(Categories))
	for _, c := range Categories {
		if !sc.Filled(c) {
			open = append(open, c)
		}
	}
	return open
}
