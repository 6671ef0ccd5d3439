package api

import (
	"testing"
)

func TestInitTLS(t *testing.T) {
	tests := []struct {
		name      string
		cert, key string
		enabled   bool
	}{
		{"none", "", "", false},
		{"only cert", "/path/to/cert.pem", "", false},
		{"only key", "", "/path/to/key.pem", false},
		{"both", "/path/to/cert.pem", "/path/to/key.pem", true},
	}

	for _, tt := range tests {
		t.Setenv("SCRATCHY_TLS_CERT", tt.cert)
		t.Setenv("SCRATCHY_TLS_KEY", tt.key)
		SetTLSConfigForTest(nil)
		InitTLS()

		if IsTLSEnabled() != tt.enabled {
			t.Errorf("%s: IsTLSEnabled() = %v, want %v", tt.name, IsTLSEnabled(), tt.enabled)
		}
		if tt.enabled {
			cfg := GetTLSConfig()
			if cfg == nil || cfg.CertFile != tt.cert || cfg.KeyFile != tt.key {
				t.Errorf("%s: unexpected config %+v", tt.name, cfg)
			}
		}
	}
	SetTLSConfigForTest(nil)
}

func TestLoadTLSConfig_NotEnabled(t *testing.T) {
	SetTLSConfigForTest(nil)

	if cfg := LoadTLSConfig(); cfg != nil {
		t.Error("LoadTLSConfig should return nil when TLS is not enabled")
	}
}

func TestLoadTLSConfig_InvalidFiles(t *testing.T) {
	SetTLSConfigForTest(&TLSConfig{
		CertFile: "/nonexistent/cert.pem",
		KeyFile:  "/nonexistent/key.pem",
	})
	defer SetTLSConfigForTest(nil)

	if cfg := LoadTLSConfig(); cfg != nil {
		t.Error("LoadTLSConfig should return nil when cert files don't exist")
	}
}
