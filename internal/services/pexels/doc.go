// Package pexels searches the Pexels video API for stock footage.
//
// Client.Search returns the raw video candidates for one query; selection by
// orientation, duration and reuse lives in the footage package. Any
// non-success response is reported as a *StatusError.
package pexels
