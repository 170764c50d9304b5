package utils

import "errors"

// Common application errors used across services. Services wrap these with
// fmt.Errorf("%w: detail") so handlers can classify with errors.Is while the
// message keeps the specifics.
var (
	ErrInvalidBranch = errors.New("INVALID_BRANCH")
	ErrValidation    = errors.New("VALIDATION_ERROR")
	ErrDuplicateCode = errors.New("DUPLICATE_CODE")
	ErrNotFound      = errors.New("PRODUCT_NOT_FOUND")
	ErrUnauthorized  = errors.New("UNAUTHORIZED")
	ErrStorage       = errors.New("STORAGE_ERROR")
)
