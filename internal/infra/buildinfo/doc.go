// Package buildinfo reports the version of refstate binaries.
//
// Release builds set the variables with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/refstate-go/internal/infra/buildinfo.Version=v1.0.0 \
//	  -X github.com/yndnr/refstate-go/internal/infra/buildinfo.Commit=$(git rev-parse --short HEAD)"
//
// Without ldflags the commit and build time fall back to the VCS stamp the
// go command embeds.
package buildinfo
