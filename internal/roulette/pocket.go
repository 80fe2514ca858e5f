package roulette

import (
	"fmt"
	"strconv"
	"strings"
)

// DoubleZero is the number used for the American "00" pocket.
const DoubleZero = 37

// Color is the colour of a pocket.
type Color int

const (
	Green Color = iota
	Red
	Black
)

func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Black:
		return "black"
	default:
		return "green"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "red":
		*c = Red
	case "black":
		*c = Black
	case "green":
		*c = Green
	default:
		return fmt.Errorf("%w: unknown color %q", ErrInvalidArgument, text)
	}
	return nil
}

// Pocket is one numbered, coloured slot on the wheel.
type Pocket struct {
	Number int   `json:"number"`
	Color  Color `json:"color"`
}

// NewPocket returns the pocket for n, where 0..36 are the usual numbers and
// 37 is "00".
func NewPocket(n int) (Pocket, error) {
	if n < 0 || n > DoubleZero {
		return Pocket{}, fmt.Errorf("%w: pocket number %d out of range", ErrInvalidArgument, n)
	}
	return Pocket{Number: n, Color: colorOf(n)}, nil
}

func colorOf(n int) Color {
	switch {
	case n == 0 || n == DoubleZero:
		return Green
	case IsRed(n):
		return Red
	default:
		return Black
	}
}

func (p Pocket) String() string {
	return FormatNumber(p.Number) + " " + p.Color.String()
}

// FormatNumber renders a pocket number, printing 37 as "00".
func FormatNumber(n int) string {
	if n == DoubleZero {
		return "00"
	}
	return strconv.Itoa(n)
}

// ParsePocket parses "0".."36" or "00".
func ParsePocket(s string) (Pocket, error) {
	s = strings.TrimSpace(s)
	if s == "00" {
		return NewPocket(DoubleZero)
	}
	n, err := strconv.Atoi(s)
	if err != nil || n == DoubleZero {
		return Pocket{}, fmt.Errorf("%w: invalid pocket %q", ErrInvalidArgument, s)
	}
	return NewPocket(n)
}

// ParsePockets parses a comma separated pocket list such as "1,2,00".
func ParsePockets(s string) ([]Pocket, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	pockets := make([]Pocket, 0, len(parts))
	for _, part := range parts {
		p, err := ParsePocket(part)
		if err != nil {
			return nil, err
		}
		pockets = append(pockets, p)
	}
	return pockets, nil
}
