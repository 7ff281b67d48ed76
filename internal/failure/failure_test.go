package failure

import (
	"errors"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
)

func TestNew_NilError(t *testing.T) {
	assert.NoError(t, New(IOFailure, nil))
}

func TestKindOf_ThroughErisWrap(t *testing.T) {
	base := New(ConstraintViolation, errors.New("UNIQUE constraint failed: company.applicant"))
	wrapped := eris.Wrap(eris.Wrap(base, "store: append companies"), "pipeline: append")

	assert.Equal(t, ConstraintViolation, KindOf(wrapped))
	assert.True(t, Is(wrapped, ConstraintViolation))
	assert.False(t, Is(wrapped, IOFailure))
	assert.Contains(t, wrapped.Error(), "UNIQUE constraint failed")
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, Unknown, KindOf(errors.New("plain")))
	assert.False(t, Is(nil, SchemaMismatch))
}

func TestNewf(t *testing.T) {
	err := Newf(SchemaMismatch, "missing columns: %v", []string{"applicant"})
	assert.True(t, Is(err, SchemaMismatch))
	assert.Equal(t, "missing columns: [applicant]", err.Error())
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{SchemaMismatch, "schema_mismatch"},
		{ConstraintViolation, "constraint_violation"},
		{IOFailure, "io_failure"},
		{Unknown, "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
}

func TestError_Unwrap(t *testing.T) {
	sentinel := errors.New("disk gone")
	err := New(IOFailure, sentinel)
	assert.ErrorIs(t, err, sentinel)
}
