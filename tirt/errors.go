package tirt

import "fmt"

// ValidationError reports a structurally invalid simulation input. It is
// always raised before any generation work begins and names the offending
// argument.
type ValidationError struct {
	Field string // offending argument, e.g. "lambda"
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

// validationErrorf builds a *ValidationError for the named field.
func validationErrorf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// DesignConstructionError reports that the random block search exhausted its
// attempt budget without completing a balanced assignment. It is a terminal
// failure: the caller may retry with a smaller design or fixed mode, but the
// planner never falls back between modes on its own.
type DesignConstructionError struct {
	Budget SearchBudget
}

func (e *DesignConstructionError) Error() string {
	return fmt.Sprintf("no balanced block assignment found within %d attempts per block across %d restarts",
		e.Budget.MaxTrysInner, e.Budget.MaxTrysOuter)
}
