package rewrite

import (
	"strconv"
	"strings"
)

// EnsureMinPx raises the pixel value captured by group 1 of the match loc to
// at least min. It returns the rewritten match text and whether it changed.
func EnsureMinPx(src string, loc []int, min int) (string, bool) {
	if len(loc) < 4 || loc[2] < 0 {
		return "", false
	}
	n, err := strconv.Atoi(src[loc[2]:loc[3]])
	if err != nil || n >= min {
		return "", false
	}
	return src[loc[0]:loc[2]] + strconv.Itoa(min) + src[loc[3]:loc[1]], true
}

// AppendUnlessFollowed returns a match func that appends add after the match
// unless the text after it, leading whitespace skipped, already starts with
// next.
func AppendUnlessFollowed(add, next string) func(src string, loc []int) (string, bool) {
	return func(src string, loc []int) (string, bool) {
		rest := strings.TrimLeft(src[loc[1]:], " \t\r\n")
		if strings.HasPrefix(rest, next) {
			return "", false
		}
		return src[loc[0]:loc[1]] + add, true
	}
}
