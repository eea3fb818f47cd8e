package cerr

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/kazz187/shopguild/pkg/clog"
)

type responseReceiverKey struct{}

type responseReceiver struct {
	status   int
	response any
	err      error
	written  bool
}

func contextWithResponseReceiver(ctx context.Context, rr *responseReceiver) context.Context {
	return context.WithValue(ctx, responseReceiverKey{}, rr)
}

func responseReceiverFromContext(ctx context.Context) *responseReceiver {
	if rr, ok := ctx.Value(responseReceiverKey{}).(*responseReceiver); ok {
		return rr
	}
	return nil
}

// SetJSONResponse records the body the middleware writes after the handler returns.
func SetJSONResponse(ctx context.Context, response any) {
	SetJSONResponseWithStatus(ctx, http.StatusOK, response)
}

func SetJSONResponseWithStatus(ctx context.Context, status int, response any) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.status = status
		rr.response = response
	}
}

func SetJSONError(ctx context.Context, err error) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.err = err
	}
}

func SetNewJSONError(ctx context.Context, code Code, msg string, err error) {
	SetJSONError(ctx, NewError(code, msg, err))
}

// MarkWritten tells the middleware the handler wrote its own response, as the
// upstream proxy does when it streams an upstream body through.
func MarkWritten(ctx context.Context) {
	if rr := responseReceiverFromContext(ctx); rr != nil {
		rr.written = true
	}
}

func NewConvertConnectErrorChiMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rr := &responseReceiver{status: http.StatusOK}
			ctx := contextWithResponseReceiver(r.Context(), rr)
			next.ServeHTTP(rw, r.WithContext(ctx))
			ExtractToHTTPResponse(ctx, rw, rr)
		})
	}
}

type httpError struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func ExtractToHTTPResponse(ctx context.Context, rw http.ResponseWriter, rr *responseReceiver) {
	if rr.written {
		return
	}
	if rr.err == nil {
		writeJSON(ctx, rw, rr.status, rr.response)
		return
	}
	writeJSONError(ctx, rw, Normalize(ctx, rr.err))
}

func encode(v any) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(ctx context.Context, rw http.ResponseWriter, status int, response any) {
	if status == http.StatusNoContent {
		rw.WriteHeader(status)
		return
	}
	body, err := encode(response)
	if err != nil {
		writeJSONError(ctx, rw, Normalize(ctx, NewError(Internal, "server error", err)))
		return
	}
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(status)
	if _, err := rw.Write(body); err != nil {
		clog.AddError(ctx, NewError(Internal, "server error", err))
	}
}

func writeJSONError(ctx context.Context, rw http.ResponseWriter, origErr *Error) {
	body, err := encode(httpError{
		Code:    origErr.Code.String(),
		Message: origErr.Msg,
		Details: origErr.DetailMessages(),
	})
	if err != nil {
		body = []byte(`{"code":"internal","message":"server error"}`)
		clog.AddError(ctx, err)
	}
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(origErr.Code.HTTPCode())
	if _, err := rw.Write(body); err != nil {
		clog.AddError(ctx, err)
	}
}
