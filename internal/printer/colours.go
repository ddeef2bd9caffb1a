package printer

import (
	"fmt"
	"math"
	"math/bits"
)

// nameToColourHSV derives a stable fill colour from a package name, together with a text colour
// that stays readable on top of it. The root package gets a pale variant.
func nameToColourHSV(name string, isRoot bool) (text string, background string) {
	var h byte
	for _, b := range []byte(name) {
		h ^= bits.RotateLeft8(uint8(b), int(b))
	}
	hue := float32(uint8(h)) / float32(math.MaxUint8)
	satVar := float32(uint8(h^0xff)) / float32(math.MaxUint8)

	text = "0.000 0.000 0.000"
	sat := 0.7 + 0.3*satVar
	if isRoot {
		sat = 0.2 + 0.2*satVar
	} else if hue < 0.10 || (hue > 0.6 && hue < 0.8) {
		text = "0.000 0.000 1.000"
	}
	return text, fmt.Sprintf("%.3f %.3f 1.000", hue, sat)
}
