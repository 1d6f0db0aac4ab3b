package conveyor

import (
	"fmt"
	"math"
)

// Package is one item on the belt.
type Package struct {
	ID        int64
	PositionM float64 // distance from the line's entry
	MassKg    float64
}

// Line is a straight belt split into equal-length segments, each driven by
// its own motor.
type Line struct {
	LengthM  float64
	Segments int

	packages []Package
	nextID   int64
}

// NewLine returns an empty line.
func NewLine(lengthM float64, segments int) (*Line, error) {
	if segments <= 0 {
		return nil, fmt.Errorf("conveyor needs at least one segment, got %d", segments)
	}
	if lengthM <= 0 {
		return nil, fmt.Errorf("conveyor length must be positive, got %g", lengthM)
	}
	return &Line{LengthM: lengthM, Segments: segments}, nil
}

// SegmentLength is the length of every segment.
func (l *Line) SegmentLength() float64 {
	return l.LengthM / float64(l.Segments)
}

// Span returns the [start, end) interval covered by segment i.
func (l *Line) Span(i int) (start, end float64) {
	seg := l.SegmentLength()
	return float64(i) * seg, float64(i+1) * seg
}

// SegmentAt returns the index of the segment carrying a package at pos,
// clamped to the line.
func (l *Line) SegmentAt(pos float64) int {
	idx := int(math.Floor(pos / l.SegmentLength()))
	if idx < 0 {
		return 0
	}
	if idx >= l.Segments {
		return l.Segments - 1
	}
	return idx
}

// Add places a package and returns it.
func (l *Line) Add(positionM, massKg float64) Package {
	p := Package{ID: l.nextID, PositionM: positionM, MassKg: massKg}
	l.nextID++
	l.packages = append(l.packages, p)
	return p
}

// Len is the number of packages on the belt.
func (l *Line) Len() int {
	return len(l.packages)
}

// Packages returns the packages in arrival order. The slice is shared with
// the line and must not be modified.
func (l *Line) Packages() []Package {
	return l.packages
}

// MassBetween sums the mass of packages with start <= position < end.
func (l *Line) MassBetween(start, end float64) float64 {
	total := 0.0
	for _, p := range l.packages {
		if p.PositionM >= start && p.PositionM < end {
			total += p.MassKg
		}
	}
	return total
}

// Advance moves every package by the speed of the segment it is on and drops
// those that reach the end of the line. It returns how many were removed.
func (l *Line) Advance(speedOf func(segment int) float64, dt float64) int {
	kept := l.packages[:0]
	removed := 0
	for _, p := range l.packages {
		p.PositionM += speedOf(l.SegmentAt(p.PositionM)) * dt
		if p.PositionM >= l.LengthM {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	l.packages = kept
	return removed
}
