package main

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

type responseData struct {
	status int
	size   int
}

type loggingResponseWriter struct {
	http.ResponseWriter
	data *responseData
}

func (w *loggingResponseWriter) Write(b []byte) (int, error) {
	size, err := w.ResponseWriter.Write(b)
	w.data.size += size
	return size, err
}

func (w *loggingResponseWriter) WriteHeader(statusCode int) {
	w.ResponseWriter.WriteHeader(statusCode)
	w.data.status = statusCode
}

// WithLogging logs uri, method, status, size and duration of every request.
func WithLogging(logger *zap.Logger) func(http.Handler) http.Handler {
	sugar := logger.Sugar()
	return func(h http.Handler) http.Handler {
		logFn := func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			data := &responseData{status: http.StatusOK}
			h.ServeHTTP(&loggingResponseWriter{ResponseWriter: w, data: data}, r)

			sugar.Infoln(
				"uri", r.RequestURI,
				"method", r.Method,
				"status", data.status,
				"size", data.size,
				"duration", time.Since(start),
			)
		}
		return http.HandlerFunc(logFn)
	}
}
