package domain

import "errors"

var (
	// ErrNotFound will throw if the requested item does not exist
	ErrNotFound = errors.New("Your requested Item is not found")
	// ErrConflict will throw if the current action already exists
	ErrConflict = errors.New("Your Item already exist")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput = errors.New("Given Param is not valid")

	ErrInvalidJsonFormat = errors.New("invalid JSON format")
	ErrInvalidChainId    = errors.New("invalid chain id")
	ErrInvalidAddress    = errors.New("Invalid address")
)
