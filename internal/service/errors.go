package service

import (
	"errors"
	"fmt"

	"github.com/Skotchmaster/shopcarts/internal/filter"
	"github.com/Skotchmaster/shopcarts/internal/models"
	"github.com/Skotchmaster/shopcarts/internal/productinfo"
	"github.com/Skotchmaster/shopcarts/internal/repo"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrEmptyCart  = errors.New("cart is empty")

	ErrItemNotFound = fmt.Errorf("item %w", ErrNotFound)
)

// Error carries a client-facing message. Kind is one of the sentinels above.
type Error struct {
	Kind  error
	Msg   string
	Cause error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func fail(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// classify gives lower-layer errors a service kind. Persistence and
// unknown errors are returned as is.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var se *Error
	if errors.As(err, &se) {
		return err
	}

	var fe *filter.Error
	switch {
	case errors.As(err, &fe) && errors.Is(err, filter.ErrConflict):
		return &Error{Kind: ErrConflict, Msg: fe.Error(), Cause: err}
	case errors.As(err, &fe):
		return &Error{Kind: ErrValidation, Msg: fe.Error(), Cause: err}
	case errors.Is(err, models.ErrInvalidItem):
		return &Error{Kind: ErrValidation, Msg: err.Error(), Cause: err}
	case errors.Is(err, repo.ErrNotFound):
		return &Error{Kind: ErrItemNotFound, Msg: err.Error(), Cause: err}
	case errors.Is(err, productinfo.ErrProductNotFound):
		return &Error{Kind: ErrNotFound, Msg: err.Error(), Cause: err}
	}
	return err
}
