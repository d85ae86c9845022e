package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/sealion/internal/platform/validate"
)

func TestRespondErrorShapes(t *testing.T) {
	cases := []struct {
		err    error
		status int
		body   string
	}{
		{err: ErrNotFound, status: http.StatusNotFound, body: `{"detail":"Not found."}`},
		{err: fmt.Errorf("product 9: %w", ErrNotFound), status: http.StatusNotFound, body: `{"detail":"Not found."}`},
		{err: validate.FieldErrors{"name": {"This field is required."}}, status: http.StatusBadRequest, body: `{"name":["This field is required."]}`},
		{err: ErrUnauthorized, status: http.StatusUnauthorized, body: `{"detail":"Authentication credentials were not provided."}`},
		{err: errors.New("db down"), status: http.StatusInternalServerError, body: `{"detail":"A server error occurred."}`},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		require.Equal(t, tc.status, rr.Code)
		require.JSONEq(t, tc.body, rr.Body.String())
		require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	}
}

func TestNoContent(t *testing.T) {
	rr := httptest.NewRecorder()
	NoContent(rr)
	require.Equal(t, http.StatusNoContent, rr.Code)
	require.Empty(t, rr.Body.String())
}
