// Package errors provides error handling for the feedback client and collector.
//
// It re-exports github.com/cockroachdb/errors so every package wraps, marks
// and inspects errors the same way:
//
//	// Wrap with context
//	if err := probe(); err != nil {
//	    return errors.Wrap(err, "storage estimate")
//	}
//
//	// Classify with a sentinel
//	return errors.Mark(err, ErrProbe)
//
//	// Check
//	if errors.Is(err, ErrProbe) { ... }
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Classification and inspection
var (
	Mark         = crdb.Mark
	Is           = crdb.Is
	IsAny        = crdb.IsAny
	As           = crdb.As
	Unwrap       = crdb.Unwrap
	UnwrapAll    = crdb.UnwrapAll
	GetAllHints  = crdb.GetAllHints
	FlattenHints = crdb.FlattenHints
)
