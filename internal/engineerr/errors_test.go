package engineerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByCode(t *testing.T) {
	e1 := Usage(CodeBadQuery, "bad match expr", nil)
	e2 := Usage(CodeBadQuery, "a different message", nil)
	assert.True(t, errors.Is(e1, e2))

	e3 := Usage(CodeEmptyQuery, "empty", nil)
	assert.False(t, errors.Is(e1, e3))
}

func TestError_UnwrapChain(t *testing.T) {
	cause := fmt.Errorf("disk write failed")
	wrapped := ResourceExhaustion(CodeDiskFull, "cannot write artifact", cause)
	assert.ErrorIs(t, wrapped, cause)
}

func TestIsRetryable(t *testing.T) {
	transient := Transient(CodeProviderFailure, "5xx from provider", nil)
	assert.True(t, IsRetryable(transient))

	usage := Usage(CodeBadQuery, "bad", nil)
	assert.False(t, IsRetryable(usage))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(Fatal(CodePanic, "panic in event loop", nil)))
	assert.False(t, IsFatal(Usage(CodeBadQuery, "bad", nil)))
}

func TestWithDetail(t *testing.T) {
	e := Structural(CodeSchemaMismatch, "schema too new", nil).WithDetail("found", "7").WithDetail("max", "5")
	assert.Equal(t, "7", e.Details["found"])
	assert.Equal(t, "5", e.Details["max"])
}
