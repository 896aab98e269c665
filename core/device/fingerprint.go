package device

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// Sentinels recorded for unsupported probes. They are kept in Info for
// diagnostics but never enter the hashed payload, so a browser that cannot
// report a signal still produces the same fingerprint as one that can
// not be probed at all.
const (
	SentinelPlatform = "platform-unknown"
	SentinelTimezone = "timezone-unknown"
	SentinelCanvas   = "canvas-error"
	SentinelWebGL    = "webgl-error"
)

type (
	// Signals holds everything the client collected about its host.
	// Only the hardware-level fields participate in the fingerprint;
	// browser-dependent fields are diagnostics only.
	Signals struct {
		Platform       string  `json:"platform"`
		Timezone       string  `json:"timezone"`
		ColorDepth     int     `json:"color_depth"`
		CPUCores       int     `json:"cpu_cores"`
		DeviceMemoryGB float64 `json:"device_memory_gb"`

		// never hashed
		UserAgent     string `json:"user_agent,omitempty"`
		Language      string `json:"language,omitempty"`
		CanvasHash    string `json:"canvas_hash,omitempty"`
		WebGLRenderer string `json:"webgl_renderer,omitempty"`
	}

	// Identity is the result of fingerprinting: a stable hash plus the
	// normalized signals it was derived from.
	Identity struct {
		Hash string  `json:"hash"`
		Info Signals `json:"info"`
	}
)

// Generate derives the device fingerprint from sig. It never fails:
// unsupported signals degrade to sentinels and drop out of the hash.
// Two browsers on the same hardware yield the same hash.
func Generate(sig Signals) Identity {
	info := sig
	parts := make([]string, 0, 5)

	if p := strings.TrimSpace(sig.Platform); p != "" {
		parts = append(parts, "platform:"+p)
	} else {
		info.Platform = SentinelPlatform
	}
	if tz := strings.TrimSpace(sig.Timezone); tz != "" {
		parts = append(parts, "timezone:"+tz)
	} else {
		info.Timezone = SentinelTimezone
	}
	if sig.ColorDepth > 0 {
		parts = append(parts, "colordepth:"+strconv.Itoa(sig.ColorDepth))
	}
	if sig.CPUCores > 0 {
		parts = append(parts, "cores:"+strconv.Itoa(sig.CPUCores))
	}
	if sig.DeviceMemoryGB > 0 {
		parts = append(parts, "memory:"+strconv.FormatFloat(sig.DeviceMemoryGB, 'g', -1, 64))
	}
	if sig.CanvasHash == "" {
		info.CanvasHash = SentinelCanvas
	}
	if sig.WebGLRenderer == "" {
		info.WebGLRenderer = SentinelWebGL
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return Identity{Hash: hex.EncodeToString(sum[:]), Info: info}
}
