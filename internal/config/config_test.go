package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := writeConfig(t, `{}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen.Addr != DefaultAddr {
		t.Errorf("Addr = %q, want %q", cfg.Listen.Addr, DefaultAddr)
	}
	if cfg.Client.URL != DefaultURL {
		t.Errorf("URL = %q, want %q", cfg.Client.URL, DefaultURL)
	}
	if cfg.Name != "crosstalk" {
		t.Errorf("Name = %q, want crosstalk", cfg.Name)
	}
}

func TestLoadFull(t *testing.T) {
	dir := writeConfig(t, `{
		"name": "billing",
		"listen": {"addr": ":9090"},
		"tls": {"enabled": true},
		"limits": {"writeTimeout": "3s", "callTimeout": "2s", "maxMessageSize": 65536},
		"client": {"url": "wss://rpc.example.com/ws", "pingInterval": "30s", "insecureSkipVerify": true}
	}`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	srv := cfg.ServerConfig()
	if srv.Addr != ":9090" {
		t.Errorf("server Addr = %q", srv.Addr)
	}
	if srv.TLS == nil || !srv.TLS.Enabled {
		t.Error("server TLS not enabled")
	}
	if srv.WriteTimeout != 3*time.Second {
		t.Errorf("server WriteTimeout = %v", srv.WriteTimeout)
	}
	if srv.MaxMessageSize != 65536 {
		t.Errorf("server MaxMessageSize = %d", srv.MaxMessageSize)
	}

	cli := cfg.ClientConfig()
	if cli.URL != "wss://rpc.example.com/ws" {
		t.Errorf("client URL = %q", cli.URL)
	}
	if cli.PingInterval != 30*time.Second {
		t.Errorf("client PingInterval = %v", cli.PingInterval)
	}
	if !cli.InsecureSkipVerify {
		t.Error("client InsecureSkipVerify not carried over")
	}
	if cli.CallTimeout != 2*time.Second {
		t.Errorf("client CallTimeout = %v", cli.CallTimeout)
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load of empty dir should fail")
	}
}

func TestLoadMalformed(t *testing.T) {
	dir := writeConfig(t, `{not json`)
	if _, err := Load(dir); err == nil {
		t.Error("Load of malformed file should fail")
	}
}

func TestValidateBadDuration(t *testing.T) {
	dir := writeConfig(t, `{"limits": {"callTimeout": "fast"}}`)
	if _, err := Load(dir); err == nil {
		t.Error("invalid duration should fail validation")
	}
}

func TestValidateTLSPair(t *testing.T) {
	dir := writeConfig(t, `{"tls": {"enabled": true, "certFile": "only-cert.pem"}}`)
	if _, err := Load(dir); err == nil {
		t.Error("cert without key should fail validation")
	}
}

func TestPingIntervalOff(t *testing.T) {
	dir := writeConfig(t, `{"client": {"pingInterval": "off"}}`)
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cli := cfg.ClientConfig(); cli.PingInterval >= 0 {
		t.Errorf("PingInterval = %v, want negative (disabled)", cli.PingInterval)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := writeConfig(t, `{"name": "orig"}`)
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	cfg.Listen.Addr = ":7070"
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Load(dir)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Listen.Addr != ":7070" {
		t.Errorf("Addr after round trip = %q", reloaded.Listen.Addr)
	}
	if reloaded.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", reloaded.Dir(), dir)
	}
}
