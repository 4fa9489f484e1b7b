package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sarahcave/coachos/internal/api/response"
)

// RequestBodyTooLargeRecorder counts rejected oversized requests.
// Pass nil when metrics are disabled.
type RequestBodyTooLargeRecorder interface {
	RecordRequestBodyTooLarge(ctx context.Context)
}

// MaxBody caps request body size at maxBytes and answers oversized requests
// with 413. A limit of 0 or less disables the cap entirely.
//
// A handler only discovers the cap mid-read, after it may have already
// written a 400 for what looks like truncated JSON. For body-carrying methods
// the handler's response is therefore buffered and replaced with the 413 when
// the cap was the real cause; other methods write through directly.
func MaxBody(maxBytes int64, recorder RequestBodyTooLargeRecorder) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body := &cappedBody{inner: http.MaxBytesReader(w, r.Body, maxBytes)}
			r.Body = body

			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
			default:
				next.ServeHTTP(w, r)
				return
			}

			held := &heldResponse{dst: w}
			next.ServeHTTP(held, r)

			if body.capHit {
				if recorder != nil {
					recorder.RecordRequestBodyTooLarge(r.Context())
				}

				response.RespondError(w, http.StatusRequestEntityTooLarge,
					"Request Entity Too Large", "request body exceeds maximum allowed size")

				return
			}

			held.release()
		})
	}
}

// cappedBody notes when a read failed because the size cap was reached.
type cappedBody struct {
	inner  io.ReadCloser
	capHit bool
}

func (b *cappedBody) Read(p []byte) (int, error) {
	n, err := b.inner.Read(p)
	if err == nil || errors.Is(err, io.EOF) {
		// io.EOF must pass through unwrapped; io.ReadAll and json.Decoder
		// compare against it directly.
		return n, err
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		b.capHit = true
	}

	return n, fmt.Errorf("read body: %w", err)
}

func (b *cappedBody) Close() error {
	if err := b.inner.Close(); err != nil {
		return fmt.Errorf("close body: %w", err)
	}

	return nil
}

// heldResponse buffers status and body until release, so the handler's output
// can still be discarded in favor of the 413.
type heldResponse struct {
	dst    http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (h *heldResponse) Header() http.Header {
	return h.dst.Header()
}

func (h *heldResponse) WriteHeader(code int) {
	h.status = code
}

func (h *heldResponse) Write(p []byte) (int, error) {
	n, err := h.body.Write(p)
	if err != nil {
		return n, fmt.Errorf("buffer response: %w", err)
	}

	return n, nil
}

func (h *heldResponse) release() {
	if h.status != 0 {
		h.dst.WriteHeader(h.status)
	}

	_, _ = h.body.WriteTo(h.dst)
}
