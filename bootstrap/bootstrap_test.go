package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestProvisioner_FetchDecodesBrokerConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/device/bootstrap" {
			t.Errorf("got path %s, want /v1/device/bootstrap", r.URL.Path)
		}
		w.Header().Set("content-type", "application/json")
		json.NewEncoder(w).Encode(BrokerConfig{
			Host: "iot.example.com", Port: 8883, Credential: "secret", TLSEnable: true,
		})
	}))
	defer srv.Close()

	p := NewProvisioner(srv.URL, time.Second)
	cfg, err := p.Fetch(context.Background(), "PRODUCT1", "device-01")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if cfg.Host != "iot.example.com" || cfg.Port != 8883 || !cfg.TLSEnable {
		t.Errorf("got %+v", cfg)
	}
}

func TestProvisioner_FetchRejectsNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such device", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewProvisioner(srv.URL, time.Second)
	if _, err := p.Fetch(context.Background(), "PRODUCT1", "missing"); err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}
