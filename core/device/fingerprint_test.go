package device

import "testing"

func TestGenerate(t *testing.T) {
	base := Signals{
		Platform:       "Win32",
		Timezone:       "Asia/Riyadh",
		ColorDepth:     24,
		CPUCores:       8,
		DeviceMemoryGB: 8,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0",
		Language:       "ar-SA",
		CanvasHash:     "c4nv4s",
		WebGLRenderer:  "ANGLE (NVIDIA GeForce RTX 3060)",
	}

	t.Run("stable across calls", func(t *testing.T) {
		if Generate(base).Hash != Generate(base).Hash {
			t.Error("same signals produced different hashes")
		}
	})

	t.Run("browser-independent", func(t *testing.T) {
		other := base
		other.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0"
		other.Language = "en-US"
		other.CanvasHash = "d1ff3r3nt"
		other.WebGLRenderer = "Mozilla -- NVIDIA GeForce RTX 3060"
		if Generate(base).Hash != Generate(other).Hash {
			t.Error("browser-dependent signals changed the hash")
		}
	})

	t.Run("hardware-dependent", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*Signals)
		}{
			{"platform", func(s *Signals) { s.Platform = "MacIntel" }},
			{"timezone", func(s *Signals) { s.Timezone = "Africa/Cairo" }},
			{"color depth", func(s *Signals) { s.ColorDepth = 30 }},
			{"cores", func(s *Signals) { s.CPUCores = 4 }},
			{"memory", func(s *Signals) { s.DeviceMemoryGB = 16 }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				other := base
				tt.mutate(&other)
				if Generate(base).Hash == Generate(other).Hash {
					t.Errorf("%s change did not change the hash", tt.name)
				}
			})
		}
	})

	t.Run("sentinels excluded from hash", func(t *testing.T) {
		a := base
		a.CanvasHash = ""
		a.WebGLRenderer = ""
		got := Generate(a)
		if got.Hash != Generate(base).Hash {
			t.Error("sentinel substitution changed the hash")
		}
		if got.Info.CanvasHash != SentinelCanvas {
			t.Errorf("Info.CanvasHash = %q, want %q", got.Info.CanvasHash, SentinelCanvas)
		}
		if got.Info.WebGLRenderer != SentinelWebGL {
			t.Errorf("Info.WebGLRenderer = %q, want %q", got.Info.WebGLRenderer, SentinelWebGL)
		}
	})

	t.Run("never fails on empty signals", func(t *testing.T) {
		got := Generate(Signals{})
		if got.Hash == "" {
			t.Error("empty signals produced empty hash")
		}
		if got.Info.Platform != SentinelPlatform || got.Info.Timezone != SentinelTimezone {
			t.Errorf("missing sentinels in Info: %+v", got.Info)
		}
	})
}
