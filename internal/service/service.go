// Package service holds the use cases behind the HTTP API. Every use case
// returns a Response carrying the status code, a client facing message and
// an optional payload. Failures never escape as panics.
package service

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/MarkMiraclee/purchaseorder/internal/auth"
	"github.com/MarkMiraclee/purchaseorder/internal/rules"
	"github.com/MarkMiraclee/purchaseorder/internal/storage"
)

const (
	MsgUnexpected = "Something went wrong, try again later!"
	MsgDependency = "An error occured, try again later!"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuth
	KindConflict
	KindNotFound
	KindDependency
	KindUnexpected
)

func (k Kind) StatusCode() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindDependency:
		return http.StatusFailedDependency
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func fail(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func dependencyFailure(err error) *Error {
	return &Error{Kind: KindDependency, Message: MsgDependency, Err: err}
}

func fromViolation(v *rules.Violation) *Error {
	kind := KindValidation
	if v.Kind == rules.KindConflict {
		kind = KindConflict
	}
	return &Error{Kind: kind, Message: v.Message, Err: v}
}

type Response[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// Succeeded reports whether the response carries a 2xx code.
func (r Response[T]) Succeeded() bool {
	return r.Code >= 200 && r.Code < 300
}

type Service struct {
	storage storage.Storage
	codec   *auth.Codec
	limits  rules.Limits
	log     *logrus.Logger
	now     func() time.Time
	newID   func() string
}

func New(s storage.Storage, codec *auth.Codec, limits rules.Limits, log *logrus.Logger) *Service {
	return &Service{
		storage: s,
		codec:   codec,
		limits:  limits,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// WithClock replaces the service clock. Used by tests pinning the quota day.
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	return &cp
}

// run executes a use case body and maps its outcome onto a Response.
func run[T any](s *Service, op string, fields logrus.Fields, code int, msg string, fn func() (T, error)) (resp Response[T]) {
	defer func() {
		if r := recover(); r != nil {
			s.entry(op, fields).Errorf("recovered from panic: %v", r)
			resp = Response[T]{Code: http.StatusInternalServerError, Message: MsgUnexpected}
		}
	}()

	data, err := fn()
	if err != nil {
		return failure[T](s, op, fields, err)
	}
	return Response[T]{Code: code, Message: msg, Data: data}
}

func failure[T any](s *Service, op string, fields logrus.Fields, err error) Response[T] {
	var svcErr *Error
	if !errors.As(err, &svcErr) {
		s.entry(op, fields).Errorf("unexpected error: %v", err)
		return Response[T]{Code: http.StatusInternalServerError, Message: MsgUnexpected}
	}

	switch svcErr.Kind {
	case KindUnexpected:
		s.entry(op, fields).Errorf("unexpected error: %v", svcErr)
		return Response[T]{Code: http.StatusInternalServerError, Message: MsgUnexpected}
	case KindDependency:
		s.entry(op, fields).Warnf("storage write had no effect: %v", svcErr)
	}
	return Response[T]{Code: svcErr.Kind.StatusCode(), Message: svcErr.Message}
}

func (s *Service) entry(op string, fields logrus.Fields) *logrus.Entry {
	return s.log.WithFields(fields).WithField("operation", op)
}
