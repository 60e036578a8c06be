package rest

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vladislavdragonenkov/cart/internal/domain"
)

const idempotencyKeyHeader = "Idempotency-Key"

// idempotencyMiddleware защищает мутирующие запросы от двойной отправки.
// Ключ опционален: без заголовка запрос проходит как обычно. Повтор с тем же
// ключом и телом получает сохранённый ответ, повтор с другим телом — конфликт.
func (s *Server) idempotencyMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if s.idemRepo == nil {
				return next(c)
			}
			key := c.Request().Header.Get(idempotencyKeyHeader)
			if key == "" {
				return next(c)
			}

			body, err := io.ReadAll(c.Request().Body)
			if err != nil {
				return c.JSON(http.StatusBadRequest, errorResponse{Code: "invalid_request", Message: "unable to read request body"})
			}
			c.Request().Body = io.NopCloser(bytes.NewReader(body))
			requestHash := hashRequest(c.Request().Method, c.Request().URL.Path, body)

			record, err := s.idemRepo.Get(key)
			switch {
			case err == nil:
				if record.RequestHash != requestHash {
					return respondError(c, domain.ErrIdempotencyHashMismatch)
				}
				if record.Status == domain.IdempotencyStatusProcessing {
					return c.JSON(http.StatusConflict, errorResponse{Code: "in_flight", Message: "request with this idempotency key is still processing"})
				}
				// done или failed: повторяем сохранённый ответ как есть.
				return c.JSONBlob(record.HTTPStatus, record.ResponseBody)
			case errors.Is(err, domain.ErrIdempotencyKeyNotFound):
			default:
				s.logger.WithError(err).Warn("idempotency lookup failed, passing request through")
				return next(c)
			}

			if _, err := s.idemRepo.CreateProcessing(key, requestHash, time.Now().UTC().Add(s.idemTTL)); err != nil {
				if errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists) {
					return c.JSON(http.StatusConflict, errorResponse{Code: "in_flight", Message: "request with this idempotency key is still processing"})
				}
				s.logger.WithError(err).Warn("idempotency registration failed, passing request through")
				return next(c)
			}

			capture := newCaptureWriter(c.Response().Writer)
			c.Response().Writer = capture

			handlerErr := next(c)

			status := c.Response().Status
			if handlerErr != nil || status >= http.StatusInternalServerError {
				if markErr := s.idemRepo.MarkFailed(key, capture.body.Bytes(), status); markErr != nil {
					s.logger.WithError(markErr).Warn("failed to mark idempotency record as failed")
				}
				return handlerErr
			}

			if markErr := s.idemRepo.MarkDone(key, capture.body.Bytes(), status); markErr != nil {
				s.logger.WithError(markErr).Warn("failed to mark idempotency record as done")
			}
			return nil
		}
	}
}

func hashRequest(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{'\n'})
	h.Write([]byte(path))
	h.Write([]byte{'\n'})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// captureWriter дублирует тело ответа в буфер для сохранения в idempotency записи.
type captureWriter struct {
	http.ResponseWriter
	body bytes.Buffer
}

func newCaptureWriter(w http.ResponseWriter) *captureWriter {
	return &captureWriter{ResponseWriter: w}
}

func (w *captureWriter) Write(p []byte) (int, error) {
	w.body.Write(p)
	return w.ResponseWriter.Write(p)
}

func (w *captureWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *captureWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}
