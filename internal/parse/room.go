package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	numberRe = regexp.MustCompile(`(\d+)\s*$`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// ParsedRoom holds the structured data parsed from a room label.
type ParsedRoom struct {
	Prefix string
	Number int
}

// ParseRoomLabel splits a label such as "Sala 07" into its prefix and trailing number.
func ParseRoomLabel(raw string) (ParsedRoom, error) {
	s := strings.TrimSpace(spaceRe.ReplaceAllString(raw, " "))
	s = strings.ReplaceAll(s, "#", " ")

	loc := numberRe.FindStringSubmatchIndex(s)
	if loc == nil {
		return ParsedRoom{}, fmt.Errorf("unable to parse room number from label: %q", raw)
	}
	n, err := strconv.Atoi(s[loc[2]:loc[3]])
	if err != nil {
		return ParsedRoom{}, fmt.Errorf("unable to parse room number from label %q: %w", raw, err)
	}
	return ParsedRoom{Prefix: strings.TrimSpace(s[:loc[0]]), Number: n}, nil
}

// RoomLabel formats the seed label for the n-th room, zero padded to two digits.
func RoomLabel(n int) string {
	return fmt.Sprintf("Sala %02d", n)
}

// LessRoomLabel orders labels by prefix and then numerically, so "Sala 9" sorts
// before "Sala 10". Labels without a number sort after numbered ones, by text.
func LessRoomLabel(a, b string) bool {
	pa, errA := ParseRoomLabel(a)
	pb, errB := ParseRoomLabel(b)
	switch {
	case errA != nil && errB != nil:
		return a < b
	case errA != nil:
		return false
	case errB != nil:
		return true
	}
	if pa.Prefix != pb.Prefix {
		return pa.Prefix < pb.Prefix
	}
	if pa.Number != pb.Number {
		return pa.Number < pb.Number
	}
	return a < b
}
