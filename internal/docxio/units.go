package docxio

import (
	"math"
	"strconv"
)

// WordprocessingML lengths: twips (1/20 pt) for indents, spacing and page
// geometry; half-points for font sizes; 240ths of a line for auto spacing.
const (
	twipsPerMM = 1440 / 25.4
	twipsPerPt = 20
	lineUnit   = 240
)

func mmToTwips(mm float64) int {
	return int(math.Round(mm * twipsPerMM))
}

func twipsToMM(tw int) float64 {
	return float64(tw) / twipsPerMM
}

func ptToTwips(pt float64) int {
	return int(math.Round(pt * twipsPerPt))
}

func twipsToPt(tw int) float64 {
	return float64(tw) / twipsPerPt
}

func lineToUnits(multiple float64) int {
	return int(math.Round(multiple * lineUnit))
}

func halfPoints(pt float64) string {
	return strconv.Itoa(int(math.Round(pt * 2)))
}

func parseHalfPoints(s string) float64 {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return float64(v) / 2
}

// roundMM keeps two decimals so reported lengths stay readable.
func roundMM(v float64) float64 {
	return math.Round(v*100) / 100
}
