package errutil_test

import (
	"errors"
	"testing"

	"github.com/Nivl/otel-kafka-check/internal/errutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAndSetError(t *testing.T) {
	t.Parallel()

	errClose := errors.New("close failed")
	errOriginal := errors.New("original")

	testCases := []struct {
		name     string
		initial  error
		fnErr    error
		expected error
	}{
		{
			name:     "no error",
			initial:  nil,
			fnErr:    nil,
			expected: nil,
		},
		{
			name:     "fn fails",
			initial:  nil,
			fnErr:    errClose,
			expected: errClose,
		},
		{
			name:     "existing error wins",
			initial:  errOriginal,
			fnErr:    errClose,
			expected: errOriginal,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := tc.initial
			errutil.RunAndSetError(func() error { return tc.fnErr }, &err, "close")
			if tc.expected == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.expected)
			if tc.initial == nil {
				assert.Equal(t, "close: close failed", err.Error())
			}
		})
	}
}
