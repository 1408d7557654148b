package middleware

import (
	"net/http"
)

// FlushableResponseWriter records the status code and body size of a response.
type FlushableResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func NewFlushableResponseWriter(w http.ResponseWriter) *FlushableResponseWriter {
	return &FlushableResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (f *FlushableResponseWriter) WriteHeader(code int) {
	f.statusCode = code
	f.ResponseWriter.WriteHeader(code)
}

func (f *FlushableResponseWriter) Write(b []byte) (int, error) {
	n, err := f.ResponseWriter.Write(b)
	f.bytesWritten += int64(n)

	return n, err
}

// Flush is a no-op when the underlying writer cannot flush.
func (f *FlushableResponseWriter) Flush() {
	if flusher, ok := f.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (f *FlushableResponseWriter) StatusCode() int {
	return f.statusCode
}

func (f *FlushableResponseWriter) BytesWritten() int64 {
	return f.bytesWritten
}

func (f *FlushableResponseWriter) Unwrap() http.ResponseWriter {
	return f.ResponseWriter
}
