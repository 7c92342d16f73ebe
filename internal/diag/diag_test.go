package diag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jward/jbind/internal/classinfo"
)

func TestError_Message(t *testing.T) {
	e := Errorf(classinfo.Span{File: "decl.jb", Line: 2, Col: 5}, CodeNoMethod, "no methods named `%s` found", "run")
	assert.Equal(t, "decl.jb:2:5: no methods named `run` found", e.Error())

	bare := &Error{Code: CodeParse}
	assert.Equal(t, "parse", bare.Error())
}

func TestError_IsMatchesCode(t *testing.T) {
	e := Errorf(classinfo.Span{Line: 1}, CodeAmbiguousMethod, "2 methods")
	wrapped := fmt.Errorf("jbind: resolve: %w", e)

	assert.True(t, errors.Is(wrapped, ErrAmbiguousMethod))
	assert.False(t, errors.Is(wrapped, ErrNoMethod))
	assert.Equal(t, CodeAmbiguousMethod, CodeOf(wrapped))
	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("exec: not found")
	e := &Error{Code: CodeToolSpawn, Message: "failed", Err: cause}
	assert.ErrorIs(t, e, cause)
	assert.ErrorIs(t, e, ErrToolSpawn)
}
