// Package service provides domain services for refstate.
//
// Domain services contain the business logic and orchestrate operations
// on domain models. They define interfaces for their dependencies,
// allowing for dependency injection and testability.
//
// This package contains:
//
//   - Manager: the reference-state codec. Create turns an identifier list
//     into a "c:" or "s:" token, Resolve turns it back.
//   - ReferenceService: the server-side create/get/delete over a
//     storage.Store and a refid.Generator. It also satisfies Backend so a
//     Manager can run the server path in-process.
//   - Observer: callbacks receiving every raised DomainError.
//
// Managers and services are safe for concurrent use. Configuration is
// fixed at construction.
package service
