// Package httputil provides HTTP helpers shared by the gridpage API server
// and its client.
//
// # Overview
//
//   - [DecodeJSON] and [WriteJSON]: bounded request decoding and JSON
//     responses
//   - [WriteError]: coded error responses ({"code", "message"}) with the
//     status taken from errors.HTTPStatus
//   - [RequestLogger]: chi middleware that logs each request with
//     charmbracelet/log
//   - [Retry]: retry with exponential backoff for transient client failures
//
// # Errors
//
// Handlers return errors from pkg/errors and let WriteError pick the
// status:
//
//	if err := httputil.DecodeJSON(r, &req, httputil.MaxBodyBytes); err != nil {
//	    httputil.WriteError(w, err)
//	    return
//	}
//
// Errors without a code are reported as INTERNAL_ERROR with status 500 and
// a generic message, so internal details never reach the client.
//
// # Retry
//
// [Retry] only retries errors wrapped with [RetryableError]. The API client
// wraps network failures and 5xx responses:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return c.do(ctx, req)
//	})
package httputil
