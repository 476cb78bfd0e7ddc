package hydraulic

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrAssetNotFound         = errors.New("asset not found")
	ErrInvalidAssetType      = errors.New("invalid asset type")
	ErrInvalidPipe           = errors.New("invalid pipe ID")
	ErrDegenerateGeometry    = errors.New("a link needs at least 2 coordinates")
	ErrNodesShareLink        = errors.New("nodes already share a link")
	ErrInvalidInput          = errors.New("invalid input")
	ErrCustomerPointNotFound = errors.New("customer point not found")
	ErrJunctionNotFound      = errors.New("no junction found")
	ErrLabelTooLong          = errors.New("label exceeds length limit")
)

// ModelError carries structured context for a failed model operation.
type ModelError struct {
	Op      string  // e.g. "moveNode", "splitPipe"
	Entity  string  // "asset", "pipe", "customer point", "input"
	ID      AssetID // 0 when not tied to one asset
	Field   string
	Cause   error
	Context string
}

func (e *ModelError) Error() string {
	subject := e.Entity
	if e.ID != NoAssetID {
		subject = fmt.Sprintf("%s %d", e.Entity, e.ID)
	}
	if e.Field != "" {
		subject = fmt.Sprintf("%s (field %s)", subject, e.Field)
	}
	if e.Context != "" {
		subject = fmt.Sprintf("%s (%s)", subject, e.Context)
	}
	if subject == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, subject, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ModelError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *ModelError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// ErrorBuilder provides a fluent interface for building ModelErrors.
type ErrorBuilder struct {
	err ModelError
}

// NewError starts an error for the named operation
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: ModelError{Op: op}}
}

func (b *ErrorBuilder) Asset(id AssetID) *ErrorBuilder {
	b.err.Entity = "asset"
	b.err.ID = id
	return b
}

func (b *ErrorBuilder) Pipe(id AssetID) *ErrorBuilder {
	b.err.Entity = "pipe"
	b.err.ID = id
	return b
}

func (b *ErrorBuilder) CustomerPoint(id CustomerPointID) *ErrorBuilder {
	b.err.Entity = "customer point"
	b.err.ID = AssetID(id)
	return b
}

func (b *ErrorBuilder) Input(field string) *ErrorBuilder {
	b.err.Entity = "input"
	b.err.Field = field
	return b
}

func (b *ErrorBuilder) Field(name string) *ErrorBuilder {
	b.err.Field = name
	return b
}

func (b *ErrorBuilder) Context(ctx string) *ErrorBuilder {
	b.err.Context = ctx
	return b
}

func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Build returns the constructed ModelError
func (b *ErrorBuilder) Build() *ModelError {
	return &b.err
}

// Err returns the constructed error as an error interface
func (b *ErrorBuilder) Err() error {
	return &b.err
}

// AssetNotFoundError reports an unknown asset id passed to op
func AssetNotFoundError(op string, id AssetID) error {
	return NewError(op).Asset(id).Cause(ErrAssetNotFound).Err()
}

// InvalidPipeError reports an id that does not resolve to a pipe. The
// message reads "invalid pipe ID: <id>".
func InvalidPipeError(op string, id AssetID) error {
	return NewError(op).Cause(fmt.Errorf("%w: %d", ErrInvalidPipe, id)).Err()
}

// IsNotFound reports whether err names a missing asset or customer point.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAssetNotFound) || errors.Is(err, ErrCustomerPointNotFound)
}

// IsCallerError reports whether err stems from invalid caller input rather
// than an internal fault.
func IsCallerError(err error) bool {
	for _, target := range []error{
		ErrAssetNotFound, ErrInvalidAssetType, ErrInvalidPipe, ErrDegenerateGeometry,
		ErrNodesShareLink, ErrInvalidInput, ErrCustomerPointNotFound, ErrJunctionNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
