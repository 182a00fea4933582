// Package health contains code for health checks.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// nolint:gochecknoglobals
var (
	version = "dev"
	commit  = "undefined"
)

// GetVersion returns service's version and commit.
func GetVersion() string {
	return fmt.Sprintf("%s-%s", version, commit)
}

// VersionResponse ...
type VersionResponse struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// Response is a body of health check.
type Response struct {
	VersionResponse
	// Errors dictionary where key is a pinger's name and value is an error message, empty on success.
	Errors map[string]string `json:"errors"`
}

// Pinger pings external service.
type Pinger interface {
	Ping(ctx context.Context) error
	// Name returns name of pinger
	Name() string
}

type subjectPinger struct {
	f func(ctx context.Context) error
	s string
}

func (p subjectPinger) Ping(ctx context.Context) error {
	return p.f(ctx)
}

func (p subjectPinger) Name() string {
	return p.s
}

// SubjectPinger returns pinger named s over Ping function, e.g. storage.Storage.Ping.
func SubjectPinger(s string, f func(ctx context.Context) error) Pinger {
	return subjectPinger{
		f: f,
		s: s,
	}
}

// Handler pings everything concurrently and responds 500 if anything is unavailable.
func Handler(timeout time.Duration, p ...Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		var gr errgroup.Group

		var mu sync.Mutex
		resp := Response{
			VersionResponse: VersionResponse{Version: version, Commit: commit},
			Errors:          make(map[string]string, len(p)),
		}
		healthy := true

		for i := range p {
			v := p[i]
			gr.Go(func() error {
				err := v.Ping(ctx)
				if err != nil {
					logrus.WithError(err).WithField("subject", v.Name()).Error("health check failed")
				}

				mu.Lock()
				defer mu.Unlock()

				resp.Errors[v.Name()] = ""
				if err != nil {
					resp.Errors[v.Name()] = err.Error()
					healthy = false
				}

				return nil
			})
		}

		_ = gr.Wait()

		data, err := json.Marshal(resp)
		if err != nil {
			logrus.WithError(err).Error("failed to marshal health response")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if !healthy {
			w.WriteHeader(http.StatusInternalServerError)
		}
		w.Write(data) // nolint:errcheck
	}
}
