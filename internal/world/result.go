package world

import "fmt"

// Result is the outcome of a world command. The set is closed: anything the
// engine reports that is not one of the named codes maps to Failed.
type Result int8

const (
	OK                Result = 0
	Failed            Result = -1
	NoPath            Result = -2
	Busy              Result = -4
	NotEnoughResource Result = -6
	InvalidTarget     Result = -7
	Full              Result = -8
	NotInRange        Result = -9
)

var resultNames = map[Result]string{
	OK:                "OK",
	Failed:            "ERR_FAILED",
	NoPath:            "ERR_NO_PATH",
	Busy:              "ERR_BUSY",
	NotEnoughResource: "ERR_NOT_ENOUGH_RESOURCE",
	InvalidTarget:     "ERR_INVALID_TARGET",
	Full:              "ERR_FULL",
	NotInRange:        "ERR_NOT_IN_RANGE",
}

// String renders the code as its name followed by the numeric value.
func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return fmt.Sprintf("%s (%d)", name, int8(r))
	}
	return fmt.Sprintf("unknown (%d)", int8(r))
}

// Stale reports whether the code means the target can no longer be worked:
// gone, exhausted, or full. Such targets are dropped so the agent is
// rescheduled.
func (r Result) Stale() bool {
	return r == InvalidTarget || r == NotEnoughResource || r == Full
}
