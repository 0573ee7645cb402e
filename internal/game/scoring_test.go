package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardRulesScore(t *testing.T) {
	cases := []struct {
		name     string
		dice     [5]int
		category Category
		want     int
	}{
		{"ones counts only ones", [5]int{1, 1, 2, 3, 4}, CategoryOnes, 2},
		{"sixes", [5]int{6, 6, 6, 1, 2}, CategorySixes, 18},
		{"fours with none", [5]int{1, 2, 3, 5, 6}, CategoryFours, 0},
		{"three of a kind sums all dice", [5]int{3, 3, 3, 5, 5}, CategoryThreeOfAKind, 19},
		{"three of a kind unmet", [5]int{1, 2, 3, 4, 5}, CategoryThreeOfAKind, 0},
		{"four of a kind sums all dice", [5]int{2, 2, 2, 2, 6}, CategoryFourOfAKind, 14},
		{"four of a kind met by five", [5]int{4, 4, 4, 4, 4}, CategoryFourOfAKind, 20},
		{"full house", [5]int{3, 3, 3, 2, 2}, CategoryFullHouse, 25},
		{"full house needs distinct pair", [5]int{4, 4, 4, 4, 4}, CategoryFullHouse, 0},
		{"full house unmet", [5]int{3, 3, 2, 2, 1}, CategoryFullHouse, 0},
		{"small straight", [5]int{1, 2, 3, 4, 6}, CategorySmallStraight, 30},
		{"small straight with pair", [5]int{2, 2, 3, 4, 5}, CategorySmallStraight, 30},
		{"small straight unmet", [5]int{1, 2, 2, 4, 5}, CategorySmallStraight, 0},
		{"large straight low", [5]int{1, 2, 3, 4, 5}, CategoryLargeStraight, 40},
		{"large straight high", [5]int{2, 3, 4, 5, 6}, CategoryLargeStraight, 40},
		{"large straight unmet", [5]int{1, 2, 3, 4, 6}, CategoryLargeStraight, 0},
		{"dicee", [5]int{5, 5, 5, 5, 5}, CategoryDicee, 50},
		{"dicee unmet", [5]int{5, 5, 5, 5, 4}, CategoryDicee, 0},
		{"chance sums everything", [5]int{1, 2, 3, 4, 5}, CategoryChance, 15},
	}
	var rules StandardRules
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, rules.Score(tc.dice, tc.category))
		})
	}
}

func TestIsFiveOfAKind(t *testing.T) {
	assert.True(t, IsFiveOfAKind([5]int{2, 2, 2, 2, 2}))
	assert.False(t, IsFiveOfAKind([5]int{2, 2, 2, 2, 3}))
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory("full_house")
	assert.True(t, ok)
	assert.Equal(t, CategoryFullHouse, c)

	_, ok = ParseCategory("royal_flush")
	assert.False(t, ok)
}

func TestScorecardSetScoreOnce(t *testing.T) {
	sc := NewScorecard()
	assert.NoError(t, sc.SetScore(CategoryChance, 17))
	assert.Equal(t, ErrCategoryScored, sc.SetScore(CategoryChance, 30))
	assert.Equal(t, 17, *sc.Slots[CategoryChance])
	assert.Equal(t, ErrUnknownCategory, sc.SetScore(Category("flush"), 5))
}

func TestScorecardTotals(t *testing.T) {
	sc := NewScorecard()
	for _, c := range UpperCategories {
		assert.NoError(t, sc.SetScore(c, 10))
	}
	assert.Equal(t, 60, sc.UpperTotal())
	sc.UpperBonus = 35
	sc.ExtraDiceeBonus = 100
	assert.NoError(t, sc.SetScore(CategoryChance, 20))
	assert.Equal(t, 60+35+100+20, sc.Total())
	assert.False(t, sc.Complete())

	for _, c := range []Category{
		CategoryThreeOfAKind, CategoryFourOfAKind, CategoryFullHouse,
		CategorySmallStraight, CategoryLargeStraight, CategoryDicee,
	} {
		assert.NoError(t, sc.SetScore(c, 0))
	}
	assert.True(t, sc.Complete())
	assert.Empty(t, sc.OpenCategories())
}
