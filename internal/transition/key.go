package transition

import (
	"strconv"
	"strings"

	"mixdown/internal/mix"
)

// camelotKey is a position on the harmonic mixing wheel: hour 1-12 plus the
// minor (A) / major (B) ring.
type camelotKey struct {
	hour  int
	minor bool
}

// majorHours maps major key roots to Camelot hours (the B ring).
var majorHours = map[string]int{
	"b": 1, "f#": 2, "gb": 2, "db": 3, "c#": 3, "ab": 4, "g#": 4,
	"eb": 5, "d#": 5, "bb": 6, "a#": 6, "f": 7, "c": 8, "g": 9,
	"d": 10, "a": 11, "e": 12,
}

// minorHours maps minor key roots to Camelot hours (the A ring).
var minorHours = map[string]int{
	"ab": 1, "g#": 1, "eb": 2, "d#": 2, "bb": 3, "a#": 3, "f": 4,
	"c": 5, "g": 6, "d": 7, "a": 8, "e": 9, "b": 10, "f#": 11,
	"gb": 11, "db": 12, "c#": 12,
}

// parseKey accepts Camelot notation ("8A", "12b") or conventional notation
// ("Am", "F#", "Eb minor") and returns the wheel position.
func parseKey(value string) (camelotKey, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(value))
	if cleaned == "" {
		return camelotKey{}, false
	}

	if key, ok := parseCamelot(cleaned); ok {
		return key, true
	}

	minor := false
	switch {
	case strings.HasSuffix(cleaned, " minor"):
		minor = true
		cleaned = strings.TrimSuffix(cleaned, " minor")
	case strings.HasSuffix(cleaned, " major"):
		cleaned = strings.TrimSuffix(cleaned, " major")
	case strings.HasSuffix(cleaned, "min"):
		minor = true
		cleaned = strings.TrimSuffix(cleaned, "min")
	case strings.HasSuffix(cleaned, "maj"):
		cleaned = strings.TrimSuffix(cleaned, "maj")
	case strings.HasSuffix(cleaned, "m"):
		minor = true
		cleaned = strings.TrimSuffix(cleaned, "m")
	}
	cleaned = strings.TrimSpace(cleaned)

	table := majorHours
	if minor {
		table = minorHours
	}
	hour, ok := table[cleaned]
	if !ok {
		return camelotKey{}, false
	}
	return camelotKey{hour: hour, minor: minor}, true
}

func parseCamelot(value string) (camelotKey, bool) {
	if len(value) < 2 {
		return camelotKey{}, false
	}
	ring := value[len(value)-1]
	if ring != 'a' && ring != 'b' {
		return camelotKey{}, false
	}
	hour, err := strconv.Atoi(value[:len(value)-1])
	if err != nil || hour < 1 || hour > 12 {
		return camelotKey{}, false
	}
	return camelotKey{hour: hour, minor: ring == 'a'}, true
}

// KeyCompatibility applies the harmonic adjacency rule: two keys mix cleanly
// when they share a wheel position, sit one hour apart on the same ring, or
// occupy the same hour on opposite rings (relative major/minor). Missing or
// unparseable keys yield unknown.
func KeyCompatibility(a, b string) mix.KeyCompat {
	keyA, okA := parseKey(a)
	keyB, okB := parseKey(b)
	if !okA || !okB {
		return mix.KeyUnknown
	}
	if keyA.minor == keyB.minor {
		if hourDistance(keyA.hour, keyB.hour) <= 1 {
			return mix.KeyCompatible
		}
		return mix.KeyIncompatible
	}
	if keyA.hour == keyB.hour {
		return mix.KeyCompatible
	}
	return mix.KeyIncompatible
}

func hourDistance(a, b int) int {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	if diff > 6 {
		diff = 12 - diff
	}
	return diff
}
