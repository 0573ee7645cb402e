package game

// Category is one of the 13 scorecard slots.
type Category string

const (
	CategoryOnes   Category = "ones"
	CategoryTwos   Category = "twos"
	CategoryThrees Category = "threes"
	CategoryFours  Category = "fours"
	CategoryFives  Category = "fives"
	CategorySixes  Category = "sixes"

	CategoryThreeOfAKind  Category = "three_of_a_kind"
	CategoryFourOfAKind   Category = "four_of_a_kind"
	CategoryFullHouse     Category = "full_house"
	CategorySmallStraight Category = "small_straight"
	CategoryLargeStraight Category = "large_straight"
	CategoryDicee         Category = "dicee"
	CategoryChance        Category = "chance"
)

// Categories lists all 13 categories in scorecard order.
var Categories = []Category{
	CategoryOnes, CategoryTwos, CategoryThrees, CategoryFours, CategoryFives, CategorySixes,
	CategoryThreeOfAKind, CategoryFourOfAKind, CategoryFullHouse,
	CategorySmallStraight, CategoryLargeStraight, CategoryDicee, CategoryChance,
}

// UpperCategories are the six face-count categories that feed the upper bonus.
var UpperCategories = []Category{
	CategoryOnes, CategoryTwos, CategoryThrees, CategoryFours, CategoryFives, CategorySixes,
}

var upperFace = map[Category]int{
	CategoryOnes:   1,
	CategoryTwos:   2,
	CategoryThrees: 3,
	CategoryFours:  4,
	CategoryFives:  5,
	CategorySixes:  6,
}

// ParseCategory maps a wire string to a Category.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// IsUpper reports whether c belongs to the upper section.
func (c Category) IsUpper() bool {
	_, ok := upperFace[c]
	return ok
}
