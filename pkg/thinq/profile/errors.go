package profile

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

var (
	ErrUnknownDeviceType       = errors.New("unknown device type")
	ErrUnknownResource         = errors.New("unknown resource")
	ErrUnknownProperty         = errors.New("unknown property")
	ErrNotWritable             = errors.New("property not writable")
	ErrLocationRequired        = errors.New("location required")
	ErrLocationNotApplicable   = errors.New("location not applicable")
	ErrLocationConflict        = errors.New("location conflict")
	ErrValueOutOfDomain        = errors.New("value out of domain")
	ErrTypeMismatch            = errors.New("type mismatch")
	ErrUnparsableValue         = errors.New("unparsable value")
	ErrMissingRequiredProperty = errors.New("missing required property")
	ErrUnrecognizedField       = errors.New("unrecognized field")
	ErrUnitConflict            = errors.New("unit conflict")
	ErrEmptyCommand            = errors.New("command has no writes")
)

// FieldError ties one of the sentinel errors above to the field it concerns.
// Parse diagnostics use the same type.
type FieldError struct {
	Err      error
	Location string
	Resource string
	Property string
	Detail   string
}

func (e *FieldError) Path() string {
	switch {
	case e.Resource == "":
		return e.Property
	case e.Property == "":
		return e.Resource
	default:
		return e.Resource + "." + e.Property
	}
}

func (e *FieldError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Path())
	if e.Location != "" {
		sb.WriteString("@")
		sb.WriteString(e.Location)
	}
	if sb.Len() > 0 {
		sb.WriteString(": ")
	}
	sb.WriteString(e.Err.Error())
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	return sb.String()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldError(err error, location, resource, property, format string, args ...any) *FieldError {
	return &FieldError{
		Err:      err,
		Location: location,
		Resource: resource,
		Property: property,
		Detail:   fmt.Sprintf(format, args...),
	}
}

// valueError is what the codec returns; callers attach the field path.
type valueError struct {
	err    error
	detail string
}

func (e *valueError) Error() string { return e.err.Error() + ": " + e.detail }
func (e *valueError) Unwrap() error { return e.err }

func newValueError(err error, format string, args ...any) error {
	return &valueError{err: err, detail: fmt.Sprintf(format, args...)}
}

func asFieldError(err error, location, resource, property string) *FieldError {
	var ve *valueError
	if errors.As(err, &ve) {
		return &FieldError{Err: ve.err, Location: location, Resource: resource, Property: property, Detail: ve.detail}
	}
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe
	}
	return &FieldError{Err: err, Location: location, Resource: resource, Property: property}
}

// FieldErrors flattens an error returned by BuildCommand into its field errors.
func FieldErrors(err error) []*FieldError {
	var out []*FieldError
	for _, e := range multierr.Errors(err) {
		var fe *FieldError
		if errors.As(e, &fe) {
			out = append(out, fe)
		}
	}
	return out
}
