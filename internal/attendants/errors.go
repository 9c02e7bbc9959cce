package attendants

import "errors"

var (
	ErrNotFound        = errors.New("attendant not found")
	ErrAlreadyDeleted  = errors.New("attendant already deleted")
	ErrNotOnline       = errors.New("attendant not online")
	ErrTokenExpired    = errors.New("attendant token expired")
	ErrInvalidField    = errors.New("field not updatable")
	ErrInvalidArgument = errors.New("invalid argument")
)
