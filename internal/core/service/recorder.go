// Package service provides domain services for refstate.
package service

import "github.com/yndnr/refstate-go/internal/core/domain"

// Resolve results reported to a Recorder.
const (
	ResultOK       = "ok"
	ResultEmpty    = "empty"
	ResultNotFound = "not_found"
	ResultFailed   = "failed"
)

// Recorder receives codec measurements.
type Recorder interface {
	ReferenceCreated(path domain.Path)
	ReferenceFallback()
	ReferenceResolved(path domain.Path, result string)
	ErrorRaised(kind domain.Kind)
}

type nopRecorder struct{}

func (nopRecorder) ReferenceCreated(domain.Path)          {}
func (nopRecorder) ReferenceFallback()                    {}
func (nopRecorder) ReferenceResolved(domain.Path, string) {}
func (nopRecorder) ErrorRaised(domain.Kind)               {}
