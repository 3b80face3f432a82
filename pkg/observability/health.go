package observability

import (
	"context"
	"encoding/json"
	"net/http"
)

const (
	healthStatusOK          = "ok"
	healthStatusUnavailable = "unavailable"
)

// ReadyCheck reports whether a subsystem is ready. It returns nil when the
// check passes, or an error describing the failure.
type ReadyCheck func(ctx context.Context) error

type healthBody struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// HealthHandler returns an [http.Handler] for liveness checks at /healthz.
// It always answers 200 with the running version.
func HealthHandler(version string) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		writeHealthJSON(rw, http.StatusOK, healthBody{Status: healthStatusOK, Version: version})
	})
}

// ReadyHandler returns an [http.Handler] for readiness checks at /readyz.
// It runs every named check and answers 503 listing the failures, or 200
// when all pass.
func ReadyHandler(checks map[string]ReadyCheck) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, hr *http.Request) {
		failed := make(map[string]string)

		for name, check := range checks {
			err := check(hr.Context())
			if err != nil {
				failed[name] = err.Error()
			}
		}

		if len(failed) > 0 {
			writeHealthJSON(rw, http.StatusServiceUnavailable, healthBody{Status: healthStatusUnavailable, Failed: failed})

			return
		}

		writeHealthJSON(rw, http.StatusOK, healthBody{Status: healthStatusOK})
	})
}

func writeHealthJSON(rw http.ResponseWriter, code int, body healthBody) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	// The status code is already sent; an encode failure has nowhere to go.
	_ = json.NewEncoder(rw).Encode(body)
}
