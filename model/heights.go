package model

// MaxLEDs is the capacity of every segment buffer, sized for the largest band.
const MaxLEDs = 87

// Band identifies one of the three physical segment shapes on the suit.
type Band uint8

const (
	UpperBody Band = iota
	LowerBody
	Head
)

func (b Band) String() string {
	switch b {
	case UpperBody:
		return "upper-body"
	case LowerBody:
		return "lower-body"
	default:
		return "head"
	}
}

// Segment ids as wired on the suit:
//
//	0 top left (front facing), 1 top right  -> UpperBody, 87 LEDs
//	2 bottom left, 3 bottom right           -> LowerBody, 60 LEDs
//	4 helmet                                -> Head, 48 LEDs
//
// Any other id falls through to Head.
func BandFor(id int) Band {
	switch {
	case id <= 1:
		return UpperBody
	case id <= 3:
		return LowerBody
	default:
		return Head
	}
}

// Heights returns the literal height table for the band. The slice is
// shared; callers must not modify it.
func (b Band) Heights() []int {
	return bandHeights[b]
}

// LEDCount is the number of LEDs on a segment of this band.
func (b Band) LEDCount() int {
	return len(bandHeights[b])
}

var bandHeights = map[Band][]int{
	UpperBody: upperBodyHeights[:],
	LowerBody: lowerBodyHeights[:],
	Head:      headHeights[:],
}

// Vertical position of each LED on the body, measured from the floor.
var upperBodyHeights = [87]int{
	567, 579, 590, 601, 613, 625, 636, 648, 659, 671, 681, 693, 704, 718, 728,
	740, 749, 760, 771, 782, 783, 772, 761, 750, 740, 728, 717, 705, 695, 683,
	672, 661, 650, 510, 521, 533, 544, 555, 567, 578, 644, 655, 667, 677, 689,
	700, 711, 722, 734, 744, 756, 767, 778, 787, 787, 787, 787, 777, 765, 754,
	742, 731, 720, 709, 697, 686, 675, 663, 652, 640, 629, 618, 607, 595, 584,
	572, 561, 549, 538, 527, 515, 505, 493, 482, 470, 459, 448,
}

var lowerBodyHeights = [60]int{
	216, 227, 239, 250, 261, 273, 284, 296, 307, 318, 330, 341, 353, 367, 375,
	383, 391, 399, 407, 407, 400, 391, 383, 375, 367, 352, 341, 329, 317, 306,
	295, 284, 272, 262, 251, 239, 228, 216, 6, 17, 28, 40, 51, 63, 75, 85, 106,
	114, 122, 122, 113, 105, 85, 74, 63, 51, 39, 28, 17, 5,
}

// all helmet leds sit above the shoulders
var headHeights = [48]int{
	1084, 1071, 1060, 1049, 1037, 1026, 1014, 1003, 992, 980, 969, 957, 946,
	935, 854, 865, 877, 888, 899, 911, 921, 921, 921, 921, 922, 921, 921, 921,
	911, 899, 888, 877, 865, 854, 935, 946, 958, 970, 981, 992, 1003, 1014,
	1026, 1037, 1049, 1060, 1071, 1083,
}
