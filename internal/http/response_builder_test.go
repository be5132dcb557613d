package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"butce/internal/core"
	"butce/internal/store"
)

func TestJSONResponseBuilder(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusAccepted).
		Header("X-Custom", "yes").
		Body(map[string]int{"n": 1}).
		Write(w)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "yes", w.Header().Get("X-Custom"))
	assert.Equal(t, "{\"n\":1}\n", w.Body.String())
}

func TestJSONResponseBuilderNoBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, w.Body.Len())
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
		wantCode    string
	}{
		{"missing amount", core.ValidationError(core.ErrMissingAmount), http.StatusUnprocessableEntity, MsgFillAllFields, "missing amount"},
		{"bad amount", core.ValidationError(core.ErrUnparseableAmount), http.StatusUnprocessableEntity, MsgInvalidAmount, "unparseable amount"},
		{"blank name", core.ValidationError(core.ErrEmptyName), http.StatusUnprocessableEntity, MsgCategoryName, "empty category name"},
		{"wrong category", core.ValidationError(core.ErrCategoryTypeMismatch), http.StatusUnprocessableEntity, MsgWrongCategory, "category does not belong to entry type"},
		{"not found", fmt.Errorf("delete expense x: %w", store.ErrNotFound), http.StatusNotFound, MsgNotFound, ""},
		{"store down", errors.New("connection refused"), http.StatusInternalServerError, MsgDeleteFailed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			FromError(tt.err, MsgDeleteFailed).Write(w)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body MessageBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantMessage, body.Message)
			assert.Equal(t, tt.wantCode, body.Error)
		})
	}
}
