package api

import (
	"encoding/json"
	"net/http"
	"runtime"
)

// ServiceName identifies this server in /version.
const ServiceName = "conectados420-storefront"

type versionResponse struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// VersionHandler serves the build metadata injected through ldflags.
// Missing values report as "dev" and "unknown".
func VersionHandler(version, gitCommit, buildDate string) http.Handler {
	body := versionResponse{
		Service:   ServiceName,
		Version:   orDefault(version, "dev"),
		GitCommit: orDefault(gitCommit, "unknown"),
		BuildDate: orDefault(buildDate, "unknown"),
		GoVersion: runtime.Version(),
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(body)
	})
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
