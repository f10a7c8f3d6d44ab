package server

import (
	"testing"
	"time"
)

func TestWithDefaultsNilConfig(t *testing.T) {
	cfg := (*Config)(nil).withDefaults()
	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.DisableCompression {
		t.Error("compression should be enabled by default")
	}
	if cfg.CheckOrigin == nil {
		t.Error("CheckOrigin not defaulted")
	}
}

func TestWithDefaultsUserConfigKeepsCompression(t *testing.T) {
	cfg := (&Config{Addr: ":0"}).withDefaults()
	if cfg.DisableCompression {
		t.Error("user-supplied config must keep compression enabled")
	}
	if cfg.WriteTimeout != 10*time.Second {
		t.Errorf("WriteTimeout = %v, want 10s", cfg.WriteTimeout)
	}
	if cfg.CallTimeout != 5*time.Second {
		t.Errorf("CallTimeout = %v, want 5s", cfg.CallTimeout)
	}

	off := (&Config{Addr: ":0", DisableCompression: true}).withDefaults()
	if !off.DisableCompression {
		t.Error("explicit DisableCompression lost in withDefaults")
	}
}

func TestCloneCopiesTLS(t *testing.T) {
	orig := &Config{TLS: &TLSConfig{Enabled: true, CertFile: "a.pem"}}
	clone := orig.Clone()
	clone.TLS.CertFile = "b.pem"
	if orig.TLS.CertFile != "a.pem" {
		t.Error("Clone shares the TLS struct with the original")
	}
}
