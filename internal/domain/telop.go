package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// telopTextIndex is the position of the Japanese description in a telop
// entry (icon day, icon night, representative code, text, English text).
const telopTextIndex = 3

// TelopTable maps a JMA weather code to its telop entry. It is loaded once
// per run and never modified afterwards.
type TelopTable map[int][]string

// Describe returns the Japanese description for a weather code as it
// appears in the feed (a decimal string such as "101").
func (t TelopTable) Describe(code string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil {
		return "", fmt.Errorf("%w: code %q is not numeric", ErrLookupMiss, code)
	}
	entry, ok := t[n]
	if !ok || len(entry) <= telopTextIndex {
		return "", fmt.Errorf("%w: code %d", ErrLookupMiss, n)
	}
	return entry[telopTextIndex], nil
}
