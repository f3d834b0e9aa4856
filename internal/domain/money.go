package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatAmount renders minor units as "12.50 tk".
func FormatAmount(minor int64) string {
	return fmt.Sprintf("%.2f tk", float64(minor)/100)
}

// ParseAmount converts user-entered taka ("100", "15.5") into minor units.
func ParseAmount(text string) (int64, error) {
	text = strings.TrimSpace(text)
	value, err := strconv.ParseFloat(text, 64)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid amount %q", text)
	}

	return int64(value*100 + 0.5), nil
}
