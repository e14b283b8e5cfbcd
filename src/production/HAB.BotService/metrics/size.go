package metrics

import (
	"math"
	"strconv"
	"strings"
)

var sizeNames = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// ConvertSize renders a byte count with a 1024-based unit, rounded to two decimals
func ConvertSize(n uint64) string {
	if n == 0 {
		return "0B"
	}
	i := 0
	for v := n; v >= 1024 && i < len(sizeNames)-1; v /= 1024 {
		i++
	}
	scaled := float64(n) / math.Pow(1024, float64(i))
	return formatFloat(math.Round(scaled*100)/100) + " " + sizeNames[i]
}

// formatFloat prints the shortest representation of f, always with a fractional part
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
