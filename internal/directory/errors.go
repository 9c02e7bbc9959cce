package directory

import "errors"

var (
	ErrNotFound        = errors.New("record not found")
	ErrAlreadyDeleted  = errors.New("record already deleted")
	ErrInvalidArgument = errors.New("invalid argument")
)
