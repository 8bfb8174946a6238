package creative

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidSnapshot is returned (wrapped) for every snapshot validation failure.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// ValidationError lists every problem found in a snapshot.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid snapshot: %s", strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidSnapshot
}

// Validate rejects malformed snapshots. It reports all problems at once.
func (s *Snapshot) Validate() error {
	if s == nil {
		return &ValidationError{Problems: []string{"snapshot is nil"}}
	}

	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	// Current format. A snapshot without formats is evaluated without the
	// format-dependent checks.
	f, ok := s.Format()
	if !ok && len(s.Formats) > 0 {
		add("no format %q in snapshot", s.Context.FormatID)
	} else if ok && (!(f.Width > 0) || !(f.Height > 0)) {
		add("format %q has non-positive size %gx%g", f.ID, f.Width, f.Height)
	}

	if !s.Context.CreativeProfile.IsValid() {
		add("unknown creative profile %q", s.Context.CreativeProfile)
	}

	// Elements
	seen := make(map[string]bool, len(s.Elements))
	for i := range s.Elements {
		e := &s.Elements[i]
		if e.ID == "" {
			add("element %d has no id", i)
		} else if seen[e.ID] {
			add("duplicate element id %q", e.ID)
		}
		seen[e.ID] = true

		if !e.Kind.IsValid() {
			add("element %q has unknown kind %q", e.ID, e.Kind)
		}
		if !e.ValueTileType.IsValid() {
			add("element %q has unknown value tile type %q", e.ID, e.ValueTileType)
		}
		for _, v := range []float64{e.X, e.Y, e.Width, e.Height, e.ScaleX, e.ScaleY, e.Angle, e.FontSize} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				add("element %q has non-finite geometry", e.ID)
				break
			}
		}
		if e.Width < 0 || e.Height < 0 {
			add("element %q has negative size", e.ID)
		}
		if e.FontSize < 0 {
			add("element %q has negative font size", e.ID)
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Normalize returns a copy with defaults applied: zero scale becomes 1, an empty
// profile becomes STANDARD and the current format carries its id.
func (s *Snapshot) Normalize() *Snapshot {
	out := &Snapshot{
		Formats:  make(map[string]Format, len(s.Formats)),
		Elements: make([]Element, len(s.Elements)),
		Context:  s.Context,
	}
	for id, f := range s.Formats {
		if f.ID == "" {
			f.ID = id
		}
		out.Formats[id] = f
	}
	copy(out.Elements, s.Elements)
	for i := range out.Elements {
		e := &out.Elements[i]
		e.ScaleX = scaleOrOne(e.ScaleX)
		e.ScaleY = scaleOrOne(e.ScaleY)
		if e.IsValueTile && e.Role == RoleNone {
			e.Role = RoleValueTile
		}
	}
	out.Context.CreativeProfile = s.Context.EffectiveProfile()
	if out.Context.FormatID == "" {
		if f, ok := s.Format(); ok {
			out.Context.FormatID = f.ID
		}
	}
	return out
}
