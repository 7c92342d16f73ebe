package jbind

import (
	"github.com/jward/jbind/internal/classinfo"
	"github.com/jward/jbind/internal/config"
	"github.com/jward/jbind/internal/diag"
	"github.com/jward/jbind/internal/model"
	"github.com/jward/jbind/internal/reflector"
	"github.com/jward/jbind/internal/store"
)

// Public type aliases for internal types used in the Engine and QueryBuilder
// API. External consumers use these names; no conversion is needed.

type Config = config.Config
type Declaration = classinfo.Declaration
type ClassInfo = classinfo.ClassInfo
type DotId = classinfo.DotId
type Span = classinfo.Span
type Model = model.RootMap
type PackageInfo = model.PackageInfo
type ReflectedMethod = reflector.ReflectedMethod
type Selector = reflector.Selector
type Error = diag.Error
type Store = store.Store

// Sentinels for errors.Is matching on *Error codes.
var (
	ErrNameMismatch         = diag.ErrNameMismatch
	ErrDuplicateClass       = diag.ErrDuplicateClass
	ErrUnknownClass         = diag.ErrUnknownClass
	ErrToolSpawn            = diag.ErrToolSpawn
	ErrToolExit             = diag.ErrToolExit
	ErrToolTimeout          = diag.ErrToolTimeout
	ErrToolEncoding         = diag.ErrToolEncoding
	ErrParse                = diag.ErrParse
	ErrNoConstructor        = diag.ErrNoConstructor
	ErrAmbiguousConstructor = diag.ErrAmbiguousConstructor
	ErrNoMethod             = diag.ErrNoMethod
	ErrAmbiguousMethod      = diag.ErrAmbiguousMethod
	ErrUnsupported          = diag.ErrUnsupported
)
