package model

// FallbackIcon is shown for items without an icon.
const FallbackIcon = "cart-outline"

// Icons is the fixed set of icons an item may carry.
var Icons = []string{
	"cart",
	"food-apple",
	"bottle-soda",
	"carrot",
	"cheese",
	"cow",
	"fish",
	"cupcake",
	"ice-cream",
	"rice",
	"toilet-paper",
	"pill",
	"flower",
	"hanger",
	"shopping",
}

// IsIcon reports whether name is a member of Icons. Empty is not an icon.
func IsIcon(name string) bool {
	for _, ic := range Icons {
		if ic == name {
			return true
		}
	}
	return false
}

// IconIndex returns the position of name in Icons, or -1.
func IconIndex(name string) int {
	for i, ic := range Icons {
		if ic == name {
			return i
		}
	}
	return -1
}
