package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrUnknownCommand = errors.New("unknown command")

// Command is a user action that transitions the filter state.
type Command interface {
	Apply(FilterState) (FilterState, error)
}

// SetKindFilter restricts the visible set to one kind, or KindAll.
type SetKindFilter struct {
	Kind Kind
}

func (c SetKindFilter) Apply(s FilterState) (FilterState, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(string(c.Kind))))
	if k == "" {
		k = KindAll
	}
	s.Kind = k
	return s, nil
}

// SetIntensityFilter sets the minimum normalized intensity.
type SetIntensityFilter struct {
	Min float64
}

func (c SetIntensityFilter) Apply(s FilterState) (FilterState, error) {
	next := s
	next.MinIntensity = c.Min
	if err := next.Validate(); err != nil {
		return s, err
	}
	return next, nil
}

// SetWindow sets the recency window.
type SetWindow struct {
	Window Window
}

func (c SetWindow) Apply(s FilterState) (FilterState, error) {
	w, err := ParseWindow(string(c.Window))
	if err != nil {
		return s, err
	}
	s.Window = w
	return s, nil
}

// ParseCommand maps a wire action name and its value onto a Command.
func ParseCommand(action, value string) (Command, error) {
	switch action {
	case "setKindFilter":
		return SetKindFilter{Kind: Kind(value)}, nil
	case "setIntensityFilter":
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidIntensity, value)
		}
		return SetIntensityFilter{Min: v}, nil
	case "setWindow":
		return SetWindow{Window: Window(value)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, action)
	}
}
