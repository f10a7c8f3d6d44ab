package client

import (
	"testing"
	"time"
)

func TestWithDefaultsUserConfigKeepsCompression(t *testing.T) {
	cfg := (&Config{URL: "ws://example/ws"}).withDefaults()
	if cfg.DisableCompression {
		t.Error("user-supplied config must keep compression enabled")
	}
	if cfg.ReconnectInterval != 5*time.Second {
		t.Errorf("ReconnectInterval = %v, want 5s", cfg.ReconnectInterval)
	}
	if cfg.PingInterval != 10*time.Second {
		t.Errorf("PingInterval = %v, want 10s", cfg.PingInterval)
	}

	off := (&Config{URL: "ws://example/ws", DisableCompression: true}).withDefaults()
	if !off.DisableCompression {
		t.Error("explicit DisableCompression lost in withDefaults")
	}
}

func TestWithDefaultsPingAndBackoff(t *testing.T) {
	cfg := (&Config{PingInterval: -1}).withDefaults()
	if cfg.PingInterval >= 0 {
		t.Error("negative PingInterval must survive as disabled")
	}

	cfg = (&Config{ReconnectInterval: 2 * time.Second}).withDefaults()
	if cfg.MaxReconnectInterval != 2*time.Second {
		t.Errorf("MaxReconnectInterval = %v, want ReconnectInterval", cfg.MaxReconnectInterval)
	}

	cfg = (&Config{ReconnectInterval: time.Second, MaxReconnectInterval: time.Minute}).withDefaults()
	if cfg.MaxReconnectInterval != time.Minute {
		t.Errorf("explicit MaxReconnectInterval lost: %v", cfg.MaxReconnectInterval)
	}
}
