package pdu

import "errors"

//goland:noinspection ALL
var (
	ErrUnknownField     = errors.New("pdu: unknown string field")
	ErrInvalidFieldSize = errors.New("pdu: invalid field size")
)
