package network

import (
	"crypto/tls"
	"crypto/x509"
	"log/slog"
	"net/http"
	"time"

	"github.com/luca-patrignani/headsup-poker/ledger"
)

type Option func(*Peer)

// WithTimeout bounds both each request and the retries of one message.
// Zero retries until the context is done.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Peer) {
		p.timeout = timeout
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(p *Peer) {
		p.log = log
	}
}

// WithTranscript records the messages on t instead of a fresh transcript.
func WithTranscript(t *ledger.Transcript) Option {
	return func(p *Peer) {
		p.transcript = t
	}
}

// WithTLS serves cert over HTTPS and trusts only the certificates in cas,
// both as a client and as a server.
func WithTLS(cert tls.Certificate, cas *x509.CertPool) Option {
	return func(p *Peer) {
		p.scheme = "https"
		p.tlsConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			ClientCAs:    cas,
			ClientAuth:   tls.RequireAndVerifyClientCert,
			MinVersion:   tls.VersionTLS12,
		}
		p.client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				Certificates: []tls.Certificate{cert},
				RootCAs:      cas,
				MinVersion:   tls.VersionTLS12,
			},
		}
	}
}
