// SPDX-FileCopyrightText: 2024 EDSS
// SPDX-License-Identifier: Apache-2.0

package httpserver

import (
	"net/http"
	"time"

	"github.com/xmidt-org/arrange/arrangetls"
	"github.com/xmidt-org/httpaux"
	serveraux "github.com/xmidt-org/httpaux/server"
)

// Routes maps url paths to the handlers served on them.
type Routes map[string]http.Handler

type Config struct {
	// Address corresponds to http.Server.Addr
	Address string `validate:"empty=false"`

	// ReadTimeout corresponds to http.Server.ReadTimeout
	ReadTimeout time.Duration

	// ReadHeaderTimeout corresponds to http.Server.ReadHeaderTimeout
	ReadHeaderTimeout time.Duration

	// WriteTimeout corresponds to http.Server.WriteTimeout
	WriteTimeout time.Duration

	// IdleTimeout corresponds to http.Server.IdleTimeout
	IdleTimeout time.Duration

	// MaxHeaderBytes corresponds to http.Server.MaxHeaderBytes
	MaxHeaderBytes int

	// KeepAlive corresponds to net.ListenConfig.KeepAlive.  This value is
	// only used for listeners created via Listen.
	KeepAlive time.Duration

	// Headers supplies HTTP headers to emit on every response from this
	// server.
	Headers http.Header

	// TLS is the optional unmarshaled TLS configuration.  If set, the
	// resulting server will use HTTPS.
	TLS *arrangetls.Config
}

// Handler builds the server, mounting each route behind the configured
// response header decoration.
func (c Config) Handler(routes Routes) (server *http.Server, err error) {
	// This bit converts the headers into the httpaux.Header list then
	// decorates the outgoing headers via a chained http.Handler.
	headers := httpaux.NewHeader(c.Headers)
	decorate := serveraux.Header(headers.SetTo)

	mux := http.NewServeMux()
	for path, h := range routes {
		mux.Handle(path, decorate(h))
	}

	server = &http.Server{
		Addr:              c.Address,
		Handler:           mux,
		ReadTimeout:       c.ReadTimeout,
		ReadHeaderTimeout: c.ReadHeaderTimeout,
		WriteTimeout:      c.WriteTimeout,
		IdleTimeout:       c.IdleTimeout,
		MaxHeaderBytes:    c.MaxHeaderBytes,
	}

	server.TLSConfig, err = c.TLS.New()

	return
}
