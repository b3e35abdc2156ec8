// Package refclient provides an HTTP client for the refstate server.
//
// Client implements service.Backend, so a Manager running outside the
// server process can use the server path over HTTP:
//
//	backend := refclient.New("https://refs.example.com")
//	mgr, err := service.NewManager(cfg, service.WithBackend(backend))
//
// A 404 (or an RS-REF-4040 envelope) maps to domain.ErrReferenceNotFound.
// Every other failure, including transport errors and timeouts, is returned
// as an *APIError or a wrapped transport error, which the Manager reports
// as a NETWORK condition.
package refclient
