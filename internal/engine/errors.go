package engine

import (
	"errors"
	"fmt"
)

// ErrUnknownDimension is returned when an aggregation or trend request names
// a dimension the engine does not recognize.
var ErrUnknownDimension = errors.New("unknown dimension")

// ErrUnknownMetric is returned when a request names an unrecognized metric.
var ErrUnknownMetric = errors.New("unknown metric")

// MalformedRecordError describes one source row the loader could not turn
// into a CrashRecord. In lenient mode these are counted and skipped; in
// strict mode the first one fails the whole load.
type MalformedRecordError struct {
	Line   int
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record at line %d: field %q: %s", e.Line, e.Field, e.Reason)
}
