package network

import "errors"

// Soft conditions. Operations that hit one of these leave state unchanged,
// report the condition on the device logger and return the error so callers
// can test it with errors.Is.
var (
	ErrPortDisabled      = errors.New("port not enabled")
	ErrPortNotLinked     = errors.New("port not linked")
	ErrLinkExists        = errors.New("link already exists")
	ErrSelfLink          = errors.New("cannot link a port to itself")
	ErrNoLink            = errors.New("there is no link to delete")
	ErrPortAlreadyOpen   = errors.New("port already open")
	ErrPortAlreadyClosed = errors.New("port already closed")
	ErrLinkDown          = errors.New("link deleted while packet in flight")
)
