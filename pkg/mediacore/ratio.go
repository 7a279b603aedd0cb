package mediacore

import "fmt"

// ReduceRatio reduces width:height to lowest terms. Either dimension being 0
// means the axis is unconstrained and the preset belongs to no ratio group.
func ReduceRatio(width, height int) (ratioW, ratioH int, ratioKey string) {
	if width <= 0 || height <= 0 {
		return 0, 0, RatioKeyFree
	}
	d := gcd(width, height)
	ratioW = width / d
	ratioH = height / d
	return ratioW, ratioH, fmt.Sprintf("%d:%d", ratioW, ratioH)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
