package telegram

import (
	"fmt"
	"strconv"
	"strings"
)

// parseThreshold parses a user-supplied alert threshold. Accepts a bare
// number or one with a trailing percent sign; must land in (0, 100].
func parseThreshold(s string) (float64, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse threshold %q: %w", s, err)
	}
	if v <= 0 || v > 100 {
		return 0, fmt.Errorf("threshold %v out of range (0, 100]", v)
	}
	return v, nil
}
