package model

import "github.com/pkg/errors"

var (
	ErrComponentNotFound = errors.New("component not found")
	ErrDuplicateName     = errors.New("duplicate component name")
	ErrNonlinear         = errors.New("expression is not linear")
	ErrNoValue           = errors.New("variable has no value")
	ErrInvalidDomain     = errors.New("unknown domain")
)
