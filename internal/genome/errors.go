package genome

import "fmt"

// ConfigError reports a malformed or contradictory genome definition.
// Invariant names the specific rule that was violated.
type ConfigError struct {
	Invariant string
	Detail    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid genome configuration (%s): %s", e.Invariant, e.Detail)
}

// NotFoundError reports a lookup for an unknown contig, genome, or
// liftover target. Kind is "contig", "genome", or "liftover".
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}

// RangeError reports a position outside the declared contig length.
type RangeError struct {
	Contig   string
	Position int64
	Length   int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("position %d out of range for contig %s (length %d)",
		e.Position, e.Contig, e.Length)
}
