// Package tlsroots provides TLS configuration for refstate endpoints.
//
// Client side: ClientConfig trusts the system roots plus an optional CA
// bundle, used when the server path endpoint is served over HTTPS with a
// private CA.
//
// Server side: CertReloader keeps the serving certificate current when the
// certificate or key file is replaced on disk.
package tlsroots
