package roulette

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"strings"
)

// NumberSet is a set of pocket numbers 0..37 stored as a bitmask.
type NumberSet uint64

// NewNumberSet builds a set, rejecting numbers outside 0..37.
func NewNumberSet(nums ...int) (NumberSet, error) {
	var s NumberSet
	for _, n := range nums {
		if n < 0 || n > DoubleZero {
			return 0, fmt.Errorf("%w: number %d out of range", ErrInvalidArgument, n)
		}
		s |= 1 << uint(n)
	}
	return s, nil
}

func rangeSet(lo, hi int) NumberSet {
	var s NumberSet
	for n := lo; n <= hi; n++ {
		s |= 1 << uint(n)
	}
	return s
}

// Contains reports whether n is in the set.
func (s NumberSet) Contains(n int) bool {
	return n >= 0 && n <= DoubleZero && s&(1<<uint(n)) != 0
}

// Len returns the number of members.
func (s NumberSet) Len() int {
	return bits.OnesCount64(uint64(s))
}

// IsEmpty reports whether the set has no members.
func (s NumberSet) IsEmpty() bool {
	return s == 0
}

// Union returns the members of either set.
func (s NumberSet) Union(o NumberSet) NumberSet {
	return s | o
}

// Numbers returns the members in ascending order.
func (s NumberSet) Numbers() []int {
	out := make([]int, 0, s.Len())
	for n := 0; n <= DoubleZero; n++ {
		if s.Contains(n) {
			out = append(out, n)
		}
	}
	return out
}

func (s NumberSet) String() string {
	parts := make([]string, 0, s.Len())
	for _, n := range s.Numbers() {
		parts = append(parts, FormatNumber(n))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// MarshalJSON encodes the set as a sorted array.
func (s NumberSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Numbers())
}

// UnmarshalJSON decodes an array of numbers.
func (s *NumberSet) UnmarshalJSON(data []byte) error {
	var nums []int
	if err := json.Unmarshal(data, &nums); err != nil {
		return err
	}
	set, err := NewNumberSet(nums...)
	if err != nil {
		return err
	}
	*s = set
	return nil
}

var (
	redSet = func() NumberSet {
		s, _ := NewNumberSet(1, 3, 5, 7, 9, 12, 14, 16, 18, 19, 21, 23, 25, 27, 30, 32, 34, 36)
		return s
	}()
	blackSet = rangeSet(1, 36) &^ redSet
	lowSet   = rangeSet(1, 18)
	highSet  = rangeSet(19, 36)

	evenSet, oddSet NumberSet
	dozenSets       [4]NumberSet
	streetSets      [13]NumberSet
	lineSets        [12]NumberSet
	columnSets      [4]NumberSet
)

func init() {
	for n := 1; n <= 36; n++ {
		if n%2 == 0 {
			evenSet |= 1 << uint(n)
		} else {
			oddSet |= 1 << uint(n)
		}
		columnSets[(n-1)%3+1] |= 1 << uint(n)
	}
	for i := 1; i <= 3; i++ {
		start := (i-1)*12 + 1
		dozenSets[i] = rangeSet(start, start+11)
	}
	for i := 1; i <= 12; i++ {
		start := (i-1)*3 + 1
		streetSets[i] = rangeSet(start, start+2)
	}
	for i := 1; i <= 11; i++ {
		start := (i-1)*3 + 1
		lineSets[i] = rangeSet(start, start+5)
	}
}

// IsRed reports membership in the fixed 18-number red set.
func IsRed(n int) bool {
	return redSet.Contains(n)
}

// IsBlack reports whether n is one of the 18 black numbers.
func IsBlack(n int) bool {
	return blackSet.Contains(n)
}

// Reds returns the 18 red numbers.
func Reds() NumberSet { return redSet }

// Blacks returns the 18 black numbers.
func Blacks() NumberSet { return blackSet }

// Evens returns the even numbers 2..36.
func Evens() NumberSet { return evenSet }

// Odds returns the odd numbers 1..35.
func Odds() NumberSet { return oddSet }

// High returns 19..36.
func High() NumberSet { return highSet }

// Low returns 1..18.
func Low() NumberSet { return lowSet }

// Dozen returns the 12 numbers of dozen 1, 2 or 3.
func Dozen(index int) (NumberSet, error) {
	if index < 1 || index > 3 {
		return 0, fmt.Errorf("%w: dozen index must be 1, 2, or 3, got %d", ErrInvalidArgument, index)
	}
	return dozenSets[index], nil
}

// DozenOf returns the dozen containing n, or 0 for zero, 00 and out of range.
func DozenOf(n int) int {
	if n < 1 || n > 36 {
		return 0
	}
	return (n-1)/12 + 1
}

// Street returns the 3 numbers of street 1..12.
func Street(index int) (NumberSet, error) {
	if index < 1 || index > 12 {
		return 0, fmt.Errorf("%w: street index must be between 1 and 12, got %d", ErrInvalidArgument, index)
	}
	return streetSets[index], nil
}

// IsValidStreetStart reports whether n starts a street (1, 4, 7, ... 34).
func IsValidStreetStart(n int) bool {
	return n >= 1 && n <= 34 && (n-1)%3 == 0
}

// StreetFromNumber returns the street starting at n.
func StreetFromNumber(n int) (NumberSet, error) {
	if !IsValidStreetStart(n) {
		return 0, fmt.Errorf("%w: invalid street start number %d, must be 1, 4, 7...34", ErrInvalidArgument, n)
	}
	return Street((n-1)/3 + 1)
}

// Line returns the 6 numbers of line 1..11 (two adjacent streets).
func Line(index int) (NumberSet, error) {
	if index < 1 || index > 11 {
		return 0, fmt.Errorf("%w: line index must be between 1 and 11, got %d", ErrInvalidArgument, index)
	}
	return lineSets[index], nil
}

// Column returns the 12 numbers of column 1, 2 or 3.
func Column(index int) (NumberSet, error) {
	if index < 1 || index > 3 {
		return 0, fmt.Errorf("%w: column index must be 1, 2, or 3, got %d", ErrInvalidArgument, index)
	}
	return columnSets[index], nil
}
