package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaultsToSeverityError(t *testing.T) {
	e := New(CodeInternal, "boom")
	assert.Equal(t, SeverityError, e.Severity)
	assert.Equal(t, "[INTERNAL_ERROR] boom", e.Error())
}

func TestNewWithFieldIncludesFieldInMessage(t *testing.T) {
	e := NewWithField(CodeInvalidArgument, "bad capacity", "segments[S1].capacity")
	assert.Contains(t, e.Error(), "field: segments[S1].capacity")
}

func TestWrapPreservesCauseForUnwrap(t *testing.T) {
	cause := errors.New("underlying failure")
	e := Wrap(CodeSolverError, "solve failed", cause)
	assert.ErrorIs(t, e, cause)
}

func TestWithDetailChains(t *testing.T) {
	e := New(CodeSupplyBelowDemand, "shortage").WithDetail("totalSupply", 10.0).WithDetail("totalDemand", 80.0)
	assert.Equal(t, 10.0, e.Details["totalSupply"])
	assert.Equal(t, 80.0, e.Details["totalDemand"])
}

func TestNewWarningSeverity(t *testing.T) {
	e := NewWarning(CodeDemandUnmet, "partial delivery")
	assert.Equal(t, SeverityWarning, e.Severity)
	assert.Equal(t, "warning", e.Severity.String())
}
