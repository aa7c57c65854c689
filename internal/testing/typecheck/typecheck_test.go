package typecheck

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   any
		want    bool
		wantErr bool
	}{
		{name: "true", value: true, want: true},
		{name: "false", value: false, want: false},
		{name: "int one", value: 1, wantErr: true},
		{name: "empty string", value: "", wantErr: true},
		{name: "nil", value: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Bool("condition", tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrTypeConstraint))

				var tce *TypeConstraintError
				require.ErrorAs(t, err, &tce)
				assert.Equal(t, "condition", tce.What)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTypeConstraintError_Message(t *testing.T) {
	t.Parallel()

	err := &TypeConstraintError{What: "return value", Value: 3.5}
	assert.Equal(t, "return value must be a bool, got float64", err.Error())
}
