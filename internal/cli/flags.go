package cli

import (
	"strconv"
	"strings"

	"github.com/matzehuels/visualobserver/pkg/errors"
	"github.com/matzehuels/visualobserver/pkg/viewport"
)

// parseSize parses "WIDTHxHEIGHT", e.g. "1280x800".
func parseSize(s string) (viewport.Size, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return viewport.Size{}, errors.New(errors.ErrCodeInvalidInput, "size %q must look like 1280x800", s)
	}
	width, err := parseNumber("width", w)
	if err != nil {
		return viewport.Size{}, err
	}
	height, err := parseNumber("height", h)
	if err != nil {
		return viewport.Size{}, err
	}
	if err := errors.ValidateDimension("width", width); err != nil {
		return viewport.Size{}, err
	}
	if err := errors.ValidateDimension("height", height); err != nil {
		return viewport.Size{}, err
	}
	return viewport.Size{Width: width, Height: height}, nil
}

// parsePoint parses "X,Y", e.g. "120,40".
func parsePoint(s string) (x, y float64, err error) {
	xs, ys, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "point %q must look like 120,40", s)
	}
	if x, err = parseNumber("x", xs); err != nil {
		return 0, 0, err
	}
	if y, err = parseNumber("y", ys); err != nil {
		return 0, 0, err
	}
	if err := errors.ValidateCoordinate("x", x); err != nil {
		return 0, 0, err
	}
	return x, y, errors.ValidateCoordinate("y", y)
}

// parseVisual parses "X,Y,WIDTHxHEIGHT", e.g. "100,50,640x400".
func parseVisual(s string) (viewport.Visual, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 3 {
		return viewport.Visual{}, errors.New(errors.ErrCodeInvalidInput, "visual viewport %q must look like 100,50,640x400", s)
	}
	x, y, err := parsePoint(parts[0] + "," + parts[1])
	if err != nil {
		return viewport.Visual{}, err
	}
	size, err := parseSize(parts[2])
	if err != nil {
		return viewport.Visual{}, err
	}
	return viewport.Visual{OffsetLeft: x, OffsetTop: y, Width: size.Width, Height: size.Height}, nil
}

func parseNumber(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s %q is not a number", name, s)
	}
	return v, nil
}
