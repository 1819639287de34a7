package coding

import "errors"

//goland:noinspection ALL
var (
	ErrUnknownSelector   = errors.New("coding: unknown code page selector")
	ErrDuplicateSelector = errors.New("coding: duplicate code page selector")
	ErrInvalidSelector   = errors.New("coding: selector must be an ASCII letter")
	ErrFieldTooSmall     = errors.New("coding: field too small to hold a single character")
)
