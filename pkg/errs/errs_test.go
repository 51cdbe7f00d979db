package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	t.Run("not found wraps sentinel", func(t *testing.T) {
		err := fmt.Errorf("load: %w", NotFound("project", "abc"))
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Contains(t, err.Error(), "project abc")
	})

	t.Run("validation single and multi", func(t *testing.T) {
		assert.True(t, IsValidation(Invalid("plotStatus", "must be one of %s", "Ready")))
		multi := ValidationErrors{{Field: "a", Message: "is required"}, {Field: "b", Message: "is invalid"}}
		assert.True(t, IsValidation(fmt.Errorf("wrap: %w", multi)))
		assert.Equal(t, "a: is required; b: is invalid", multi.Error())
		assert.Equal(t, []string{"a", "b"}, multi.Fields())
		assert.False(t, IsValidation(errors.New("plain")))
	})

	t.Run("transaction error unwraps", func(t *testing.T) {
		cause := errors.New("disk full")
		err := &TransactionError{Step: "delete projects", Err: cause}
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "transaction aborted at delete projects: disk full", err.Error())
	})
}
