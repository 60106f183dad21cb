// Package binder decodes JSON request bodies into handler input structs
// with a size cap and strict field checking.
package binder
