// Package datasource opens the raw transaction input of a run. A location
// with an http or https scheme is fetched over HTTP with retries; anything
// else is read from the local filesystem.
package datasource

import (
	"context"
	"io"
	"net/url"
	"strings"

	"salesmart/internal/datasource/file"
	"salesmart/internal/datasource/httpds"
)

// Source yields the bytes of one input. The caller closes the reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Options configures New.
type Options struct {
	HTTP httpds.Config
}

// New returns the Source for location.
func New(location string, opt Options) Source {
	if IsRemote(location) {
		return httpds.NewSource(location, httpds.NewClient(opt.HTTP))
	}
	return file.NewLocal(location)
}

// IsRemote reports whether location is an http(s) URL.
func IsRemote(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	s := strings.ToLower(u.Scheme)
	return (s == "http" || s == "https") && u.Host != ""
}
