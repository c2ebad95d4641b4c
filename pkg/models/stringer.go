package models

// String methods for all custom string types.
// These are required for toon serialization, which uses fmt.Stringer.

// FitType
func (t FitType) String() string { return string(t) }

// FitMode
func (m FitMode) String() string { return string(m) }

// Orientation
func (o Orientation) String() string { return string(o) }
