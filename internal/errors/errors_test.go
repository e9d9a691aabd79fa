package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want int
	}{
		{"validation maps to 400", ValidationError("bad input"), http.StatusBadRequest},
		{"not found maps to 404", NotFoundError("missing"), http.StatusNotFound},
		{"internal maps to 500", InternalError("boom", nil), http.StatusInternalServerError},
		{"external maps to 500", ExternalError("discord down", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := stderrors.New("root cause")
	err := ExternalError("token exchange failed", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Contains(t, err.Error(), "token exchange failed")
	assert.Contains(t, err.Error(), "root cause")
}

func TestWithField(t *testing.T) {
	err := InternalError("save failed", nil).WithField("guild_id", "G1")
	assert.Equal(t, "G1", err.Context["guild_id"])
}

func TestToResponseHidesContext(t *testing.T) {
	err := InternalError("save failed", stderrors.New("pq: boom")).WithField("guild_id", "G1")
	resp := err.ToResponse()

	assert.Equal(t, "save failed", resp.Message)
	assert.Equal(t, TypeInternal, resp.Type)
}

func TestAsStructuredError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, AsStructuredError(nil))
	})

	t.Run("structured error passes through", func(t *testing.T) {
		original := ValidationError("missing code")
		got := AsStructuredError(original)
		assert.Same(t, original, got)
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		got := AsStructuredError(stderrors.New("boom"))
		require.NotNil(t, got)
		assert.Equal(t, TypeInternal, got.Type)
	})
}
