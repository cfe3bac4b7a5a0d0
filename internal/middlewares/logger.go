package middlewares

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// statusRecorder captures what the wrapped handler wrote.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// outcome maps a response status to the log level and message for it.
func outcome(status int) (logrus.Level, string) {
	switch {
	case status >= http.StatusInternalServerError:
		return logrus.ErrorLevel, "request failed"
	case status >= http.StatusBadRequest:
		return logrus.WarnLevel, "request rejected"
	default:
		return logrus.InfoLevel, "request completed"
	}
}

// Logger logs every request once it has been served, at a level chosen by
// the response status class.
func Logger(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			level, msg := outcome(rec.status)
			log.WithFields(logrus.Fields{
				"uri":      r.RequestURI,
				"method":   r.Method,
				"status":   rec.status,
				"duration": time.Since(start),
				"size":     rec.bytes,
			}).Log(level, msg)
		})
	}
}
