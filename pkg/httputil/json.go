package httputil

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/matzehuels/gridpage/pkg/errors"
)

// MaxBodyBytes bounds request bodies accepted by DecodeJSON.
const MaxBodyBytes = 4 << 20

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// DecodeJSON decodes the request body into v. Unknown fields are rejected
// and bodies larger than maxBytes fail with INVALID_INPUT.
func DecodeJSON(r *http.Request, v any, maxBytes int64) error {
	if r.Body == nil {
		return errors.New(errors.ErrCodeInvalidInput, "request body is empty")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBytes+1))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if stderrors.Is(err, io.EOF) {
			return errors.New(errors.ErrCodeInvalidInput, "request body is empty")
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid JSON body")
	}
	if dec.More() {
		return errors.New(errors.ErrCodeInvalidInput, "request body must contain a single JSON value")
	}
	return nil
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes err as an ErrorBody. The status comes from
// errors.HTTPStatus.
func WriteError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(err)
	body := ErrorBody{Code: errors.GetCode(err), Message: errors.UserMessage(err)}
	if body.Code == "" {
		body = ErrorBody{Code: errors.ErrCodeInternal, Message: "internal error"}
	}
	WriteJSON(w, status, body)
}

// ReadError decodes an ErrorBody from a failed response into a coded error.
// Bodies that are not ErrorBody JSON yield INTERNAL_ERROR with the status
// text.
func ReadError(resp *http.Response) error {
	var body ErrorBody
	data, _ := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err := json.Unmarshal(data, &body); err != nil || body.Code == "" {
		return errors.New(errors.ErrCodeInternal, "%s", http.StatusText(resp.StatusCode))
	}
	return errors.New(body.Code, "%s", body.Message)
}
