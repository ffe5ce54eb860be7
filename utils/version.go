package utils

import (
	"strings"

	"github.com/hashicorp/go-version"
)

// VersionConfig holds the published release train used to classify node
// versions beyond plain majority comparison.
type VersionConfig struct {
	CurrentStable string
	MinSupported  string
	Deprecated    string
}

var DefaultVersionConfig = VersionConfig{
	CurrentStable: "0.8.0",
	MinSupported:  "0.7.3",
	Deprecated:    "0.7.2",
}

// CheckVersionStatus classifies a node version against the release train.
func CheckVersionStatus(nodeVersion string, cfg *VersionConfig) (status string, severity string) {
	if cfg == nil {
		cfg = &DefaultVersionConfig
	}

	nodeVersion = strings.TrimPrefix(nodeVersion, "v")

	nodeVer, err := version.NewVersion(nodeVersion)
	if err != nil {
		return "unknown", "none"
	}

	current, _ := version.NewVersion(cfg.CurrentStable)
	minSupported, _ := version.NewVersion(cfg.MinSupported)
	deprecated, _ := version.NewVersion(cfg.Deprecated)

	if nodeVer.LessThan(deprecated) {
		return "deprecated", "critical"
	}
	if nodeVer.LessThan(minSupported) {
		return "outdated", "warning"
	}
	if nodeVer.LessThan(current) {
		return "outdated", "info"
	}
	return "current", "none"
}
