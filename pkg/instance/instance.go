// Package instance names the running process in logs and worker metadata.
package instance

import (
	"os"
	"strings"
)

// EnvWorkerID overrides the derived instance name.
const EnvWorkerID = "PDV_WORKER_ID"

// GetID returns PDV_WORKER_ID, then the platform dyno or host name, then a default.
func GetID() string {
	for _, key := range []string{EnvWorkerID, "DYNO", "HOSTNAME"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	return "local"
}
