package game

// ScoringOracle maps five dice and a category to a score. Implementations must
// be pure: same dice and category always yield the same score.
type ScoringOracle interface {
	Score(dice [5]int, c Category) int
}

// StandardRules is the stock oracle: upper categories sum matching faces,
// three/four of a kind sum all dice when the pattern is met, full house 25,
// small straight 30, large straight 40, dicee 50, chance sums everything.
type StandardRules struct{}

func (StandardRules) Score(dice [5]int, c Category) int {
	if face, ok := upperFace[c]; ok {
		sum := 0
		for _, d := range dice {
			if d == face {
				sum += face
			}
		}
		return sum
	}
	counts := faceCounts(dice)
	switch c {
	case CategoryThreeOfAKind:
		if maxCount(counts) >= 3 {
			return diceSum(dice)
		}
	case CategoryFourOfAKind:
		if maxCount(counts) >= 4 {
			return diceSum(dice)
		}
	case CategoryFullHouse:
		if isFullHouse(counts) {
			return 25
		}
	case CategorySmallStraight:
		if hasRun(counts, 4) {
			return 30
		}
	case CategoryLargeStraight:
		if hasRun(counts, 5) {
			return 40
		}
	case CategoryDicee:
		if maxCount(counts) == 5 {
			return 50
		}
	case CategoryChance:
		return diceSum(dice)
	}
	return 0
}

// IsFiveOfAKind reports whether all five dice show the same face.
func IsFiveOfAKind(dice [5]int) bool {
	return maxCount(faceCounts(dice)) == 5
}

func faceCounts(dice [5]int) [7]int {
	var counts [7]int
	for _, d := range dice {
		if d >= 1 && d <= 6 {
			counts[d]++
		}
	}
	return counts
}

func maxCount(counts [7]int) int {
	best := 0
	for _, n := range counts {
		if n > best {
			best = n
		}
	}
	return best
}

func diceSum(dice [5]int) int {
	sum := 0
	for _, d := range dice {
		sum += d
	}
	return sum
}

func isFullHouse(counts [7]int) bool {
	hasThree, hasTwo := false, false
	for _, n := range counts {
		switch n {
		case 3:
			hasThree = true
		case 2:
			hasTwo = true
		}
	}
	return hasThree && hasTwo
}

func hasRun(counts [7]int, length int) bool {
	run := 0
	for face := 1; face <= 6; face++ {
		if counts[face] > 0 {
			run++
			if run >= length {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}
