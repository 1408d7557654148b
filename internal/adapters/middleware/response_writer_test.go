package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"
)

type (
	FlushableResponseWriterTestSuite struct {
		suite.Suite
		recorder *httptest.ResponseRecorder
		wrapped  *FlushableResponseWriter
	}

	nonFlushingWriter struct {
		header http.Header
	}
)

func (w *nonFlushingWriter) Header() http.Header {
	return w.header
}

func (w *nonFlushingWriter) Write(b []byte) (int, error) {
	return len(b), nil
}

func (w *nonFlushingWriter) WriteHeader(int) {}

func TestFlushableResponseWriterTestSuite(t *testing.T) {
	suite.Run(t, new(FlushableResponseWriterTestSuite))
}

func (s *FlushableResponseWriterTestSuite) SetupTest() {
	s.recorder = httptest.NewRecorder()
	s.wrapped = NewFlushableResponseWriter(s.recorder)
}

func (s *FlushableResponseWriterTestSuite) TestDefaultsToStatusOK() {
	_, err := s.wrapped.Write([]byte("ok"))

	s.Require().NoError(err)
	s.Equal(http.StatusOK, s.wrapped.StatusCode())
}

func (s *FlushableResponseWriterTestSuite) TestCapturesStatusCode() {
	s.wrapped.WriteHeader(http.StatusServiceUnavailable)

	s.Equal(http.StatusServiceUnavailable, s.wrapped.StatusCode())
	s.Equal(http.StatusServiceUnavailable, s.recorder.Code)
}

func (s *FlushableResponseWriterTestSuite) TestCountsBytesWritten() {
	_, _ = s.wrapped.Write([]byte("hello "))
	_, _ = s.wrapped.Write([]byte("world"))

	s.Equal(int64(11), s.wrapped.BytesWritten())
	s.Equal("hello world", s.recorder.Body.String())
}

func (s *FlushableResponseWriterTestSuite) TestFlushDelegates() {
	s.wrapped.Flush()

	s.True(s.recorder.Flushed)
}

func (s *FlushableResponseWriterTestSuite) TestFlushWithoutFlusher() {
	wrapped := NewFlushableResponseWriter(&nonFlushingWriter{header: http.Header{}})

	s.NotPanics(wrapped.Flush)
}

func (s *FlushableResponseWriterTestSuite) TestUnwrap() {
	s.Equal(s.recorder, s.wrapped.Unwrap())
}
