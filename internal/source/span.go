package source

import (
	"fmt"
)

// Span is a half-open byte range inside a file of a FileSet.
type Span struct {
	File  FileID
	Start uint32 // в байтах включительно
	End   uint32 // в байтах не включительно
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Cover returns the smallest span containing both s and other.
// Spans from different files are not merged.
func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// Sub narrows s to the [start, end) range relative to s.Start, clamped to s.
// Used to point into a pattern string embedded in a directive.
func (s Span) Sub(start, end uint32) Span {
	if start > s.Len() {
		start = s.Len()
	}
	if end > s.Len() {
		end = s.Len()
	}
	if end < start {
		end = start
	}
	return Span{File: s.File, Start: s.Start + start, End: s.Start + end}
}
