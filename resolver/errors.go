package resolver

import "fmt"

// ConversionError reports a failed translation between provider id spaces.
// Id conversion is the one resolver step whose failure must surface to the
// caller: without a native id there is nothing to degrade to.
type ConversionError struct {
	FromSource string
	ToSource   string
	ID         int
	Reason     string
	Err        error
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("cannot convert %s id %d to %s", e.FromSource, e.ID, e.ToSource)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
