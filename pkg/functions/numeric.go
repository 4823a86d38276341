package functions

import (
	"fmt"
	"math"
	"strconv"
)

func fnCeil(args []float64) (float64, error) {
	return math.Ceil(args[0]), nil
}

func fnFloor(args []float64) (float64, error) {
	return math.Floor(args[0]), nil
}

// fnRound rounds half away from zero: round(2.5) is 3, round(-2.5) is -3.
func fnRound(args []float64) (float64, error) {
	return math.Round(args[0]), nil
}

func fnSqrt(args []float64) (float64, error) {
	num := args[0]
	if num < 0 {
		return 0, domainError(fmt.Sprintf("sqrt of negative number %s", strconv.FormatFloat(num, 'f', -1, 64)))
	}
	return math.Sqrt(num), nil
}

func fnAbs(args []float64) (float64, error) {
	return math.Abs(args[0]), nil
}

func fnMin(args []float64) (float64, error) {
	return math.Min(args[0], args[1]), nil
}

func fnMax(args []float64) (float64, error) {
	return math.Max(args[0], args[1]), nil
}
