package database

const (
	// Alphabet upper bound used to compute ranks lexicographically.
	maxChar = 'z'
	// Default mid character used for simple Next operations.
	midChar = 'U'
)

// Next returns a rank that sorts lexicographically after prev. While the last
// character still has room below maxChar it is bumped halfway towards it, so
// ranks of an append-only list stay short; otherwise midChar is appended.
func Next(prev string) string {
	if prev == "" {
		return string(midChar)
	}
	r := []rune(prev)
	last := r[len(r)-1]
	if last+1 < maxChar {
		r[len(r)-1] = last + (maxChar-last)/2
		return string(r)
	}
	return prev + string(midChar)
}
