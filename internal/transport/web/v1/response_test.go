package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EgorLis/my-records/internal/domain"
)

func TestMapDomainError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   int
	}{
		{fmt.Errorf("x: %w", domain.ErrBadParams), http.StatusBadRequest, domain.ErrCodeBadParams},
		{fmt.Errorf("record: %w", domain.ErrNotFound), http.StatusNotFound, domain.ErrCodeNotFound},
		{domain.ErrMethodNotAllowed, http.StatusMethodNotAllowed, domain.ErrCodeMethodNotAllowed},
		{fmt.Errorf("boom"), http.StatusInternalServerError, domain.ErrCodeUnexpected},
	}
	for _, tc := range cases {
		status, env := MapDomainError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		require.NotNil(t, env.Error)
		assert.Equal(t, tc.code, env.Error.Code)
	}
}

func TestWriteEnvelopeHeadHasNoBody(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteOKData(rec, httptest.NewRequest(http.MethodHead, "/", nil), "ok")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = httptest.NewRecorder()
	WriteOKData(rec, httptest.NewRequest(http.MethodGet, "/", nil), []string{"a"})
	var env struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, []string{"a"}, env.Data)
}
