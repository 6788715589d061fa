package instance

import (
	"os"

	"github.com/dairymart/dairymart-backend/pkg/env"
)

const fallbackID = "local"

// GetID identifies the running process in logs and lock ownership. It prefers
// DAIRYMART_INSTANCE_ID, then the platform dyno name, then the hostname.
func GetID() string {
	if id := env.First("DAIRYMART_INSTANCE_ID", "DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
