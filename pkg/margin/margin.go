package margin

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/visualobserver/pkg/errors"
	"github.com/matzehuels/visualobserver/pkg/geom"
)

// Unit tags a token as absolute pixels or a percentage.
type Unit uint8

const (
	Pixel Unit = iota
	Percent
)

// String returns the CSS suffix of the unit.
func (u Unit) String() string {
	if u == Percent {
		return "%"
	}
	return "px"
}

// Side indexes a Margins value.
type Side int

const (
	Top Side = iota
	Right
	Bottom
	Left
)

var sideNames = [...]string{"top", "right", "bottom", "left"}

func (s Side) String() string {
	if s < Top || s > Left {
		return "side(" + strconv.Itoa(int(s)) + ")"
	}
	return sideNames[s]
}

// Token is a single side of a margin.
type Token struct {
	Value float64
	Unit  Unit
}

// Px returns a pixel token.
func Px(v float64) Token { return Token{Value: v, Unit: Pixel} }

// Pct returns a percentage token.
func Pct(v float64) Token { return Token{Value: v, Unit: Percent} }

// Resolve converts the token to pixels. basis is the length percentages
// are taken of.
func (t Token) Resolve(basis float64) float64 {
	if t.Unit == Percent {
		return t.Value * basis / 100
	}
	return t.Value
}

// String formats the token the way CSS would print it, e.g. "10px" or "5%".
func (t Token) String() string {
	return formatNumber(t.Value) + t.Unit.String()
}

// Margins holds the four sides in top, right, bottom, left order.
type Margins [4]Token

// Zero is the margin "0px 0px 0px 0px".
var Zero = Margins{}

// Pixels builds an all-pixel margin.
func Pixels(top, right, bottom, left float64) Margins {
	return Margins{Px(top), Px(right), Px(bottom), Px(left)}
}

// tokenPattern matches a CSS number followed by px or %.
var tokenPattern = regexp.MustCompile(`^([+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?)(px|%)$`)

// Parse parses a margin specification into its four sides.
func Parse(spec string) (Margins, error) {
	fields := strings.Fields(spec)
	switch {
	case len(fields) == 0:
		return Margins{}, errors.New(errors.ErrCodeInvalidMargin, "margin must not be empty")
	case len(fields) > 4:
		return Margins{}, errors.New(errors.ErrCodeInvalidMargin,
			"margin %q has %d values, at most 4 are allowed", spec, len(fields))
	}

	var parsed [4]Token
	for i, f := range fields {
		tok, err := parseToken(f)
		if err != nil {
			return Margins{}, err
		}
		parsed[i] = tok
	}

	m := Margins{parsed[0], parsed[1], parsed[2], parsed[3]}
	if len(fields) < 2 {
		m[Right] = m[Top]
	}
	if len(fields) < 3 {
		m[Bottom] = m[Top]
	}
	if len(fields) < 4 {
		m[Left] = m[Right]
	}
	return m, nil
}

// MustParse is like Parse but panics on error. Intended for constants.
func MustParse(spec string) Margins {
	m, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return m
}

func parseToken(s string) (Token, error) {
	if s == "0" {
		return Px(0), nil
	}
	match := tokenPattern.FindStringSubmatch(s)
	if match == nil {
		return Token{}, errors.New(errors.ErrCodeInvalidMargin,
			"invalid margin value %q: only px or %% is allowed", s)
	}
	v, err := strconv.ParseFloat(match[1], 64)
	if err != nil || math.IsInf(v, 0) {
		return Token{}, errors.New(errors.ErrCodeInvalidMargin, "invalid margin number %q", s)
	}
	if match[2] == "%" {
		return Pct(v), nil
	}
	return Px(v), nil
}

// String returns all four sides separated by spaces.
func (m Margins) String() string {
	parts := make([]string, len(m))
	for i, t := range m {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

// IsPixels reports whether every side is an absolute pixel value.
func (m Margins) IsPixels() bool {
	for _, t := range m {
		if t.Unit != Pixel {
			return false
		}
	}
	return true
}

// Resolve converts every side to pixels against r. Right and left resolve
// against r.Width, top and bottom against r.Height.
func (m Margins) Resolve(r geom.Rect) [4]float64 {
	var px [4]float64
	for i, t := range m {
		basis := r.Height
		if i%2 == 1 {
			basis = r.Width
		}
		px[i] = t.Resolve(basis)
	}
	return px
}

func formatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
