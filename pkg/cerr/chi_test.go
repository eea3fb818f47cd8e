package cerr

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func serve(h http.HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	NewConvertConnectErrorChiMiddleware()(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestChiMiddleware(t *testing.T) {
	t.Run("json response", func(t *testing.T) {
		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			SetJSONResponseWithStatus(r.Context(), http.StatusCreated, map[string]string{"id": "1"})
		})
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"id":"1"}`, rec.Body.String())
	})

	t.Run("no content", func(t *testing.T) {
		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			SetJSONResponseWithStatus(r.Context(), http.StatusNoContent, nil)
		})
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("coded error with details", func(t *testing.T) {
		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			SetJSONError(r.Context(), NewError(InvalidArgument, "invalid admin", nil).AddDetailMessage("name is required"))
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"code":"invalid_argument","message":"invalid admin","details":["name is required"]}`, rec.Body.String())
	})

	t.Run("plain error hides cause", func(t *testing.T) {
		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			SetNewJSONError(r.Context(), Internal, "server error", assert.AnError)
		})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
	})

	t.Run("handler wrote its own response", func(t *testing.T) {
		rec := serve(func(w http.ResponseWriter, r *http.Request) {
			MarkWritten(r.Context())
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte("raw"))
		})
		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "raw", rec.Body.String())
	})
}
