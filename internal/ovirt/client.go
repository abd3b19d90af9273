package ovirt

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mi-ops/ovirt-inventory/internal/types"
)

const defaultTimeout = 20 * time.Second

// followParam asks the engine to embed NICs and their reported devices in
// the VM payload, saving one round trip per VM.
const followParam = "nics.reported_devices"

// Options carries everything needed to reach one engine endpoint. Insecure
// wins over CAFile when both are set.
type Options struct {
	URL      string
	Username string
	Password string
	CAFile   string
	Insecure bool
}

// Client talks to a single oVirt engine API endpoint.
type Client struct {
	baseURL    *url.URL
	username   string
	password   string
	httpClient *http.Client
}

// Connect builds a client for the endpoint and probes the API root, so
// that authentication and transport failures surface before any search
// runs. Queries are issued once each; a failure is final.
func Connect(ctx context.Context, opts Options) (*Client, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("ovirt URL is required")
	}
	parsed, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid ovirt URL: %w", err)
	}
	tlsConfig, err := newTLSConfig(opts)
	if err != nil {
		return nil, err
	}
	client := &Client{
		baseURL:  parsed,
		username: opts.Username,
		password: opts.Password,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				TLSClientConfig: tlsConfig,
			},
		},
	}
	if _, err := client.get(ctx, parsed); err != nil {
		return nil, err
	}
	return client, nil
}

func newTLSConfig(opts Options) (*tls.Config, error) {
	if opts.Insecure {
		return &tls.Config{InsecureSkipVerify: true}, nil
	}
	if opts.CAFile == "" {
		return &tls.Config{}, nil
	}
	pem, err := os.ReadFile(opts.CAFile)
	if err != nil {
		return nil, &APIError{Kind: ErrTLSConfig, Err: err}
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, &APIError{Kind: ErrTLSConfig, Err: fmt.Errorf("no certificates found in %s", opts.CAFile)}
	}
	return &tls.Config{RootCAs: pool}, nil
}

// SearchVMs runs one engine search and returns the matching VMs with their
// NICs embedded. Engines that ignore the follow parameter get a per-VM
// NIC lookup instead.
func (c *Client) SearchVMs(ctx context.Context, query string) ([]types.VM, error) {
	target := c.apiURL("vms")
	q := target.Query()
	if query != "" {
		q.Set("search", query)
	}
	q.Set("follow", followParam)
	target.RawQuery = q.Encode()

	body, err := c.get(ctx, target)
	if err != nil {
		return nil, err
	}
	raws, err := decodeCollection(body, "vm")
	if err != nil {
		return nil, &APIError{Kind: ErrBadResponse, Err: err}
	}

	vms := make([]types.VM, 0, len(raws))
	for _, raw := range raws {
		vm := normalizeVM(raw)
		if vm.NICs == nil && vm.ID != "" {
			nics, err := c.fetchNICs(ctx, vm.ID)
			if err != nil {
				return nil, err
			}
			vm.NICs = nics
		}
		vms = append(vms, vm)
	}
	return vms, nil
}

func (c *Client) fetchNICs(ctx context.Context, vmID string) ([]types.NIC, error) {
	target := c.apiURL("vms", vmID, "nics")
	q := target.Query()
	q.Set("follow", "reported_devices")
	target.RawQuery = q.Encode()

	body, err := c.get(ctx, target)
	if err != nil {
		return nil, err
	}
	raws, err := decodeCollection(body, "nic")
	if err != nil {
		return nil, &APIError{Kind: ErrBadResponse, Err: err}
	}
	nics := make([]types.NIC, 0, len(raws))
	for _, raw := range raws {
		nics = append(nics, normalizeNIC(raw))
	}
	return nics, nil
}

func (c *Client) get(ctx context.Context, target *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ovirt-inventory/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &APIError{Kind: ErrAuthFailed, StatusCode: resp.StatusCode, Err: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusBadRequest:
		return nil, &APIError{Kind: ErrBadQuery, StatusCode: resp.StatusCode, Err: faultError(body)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &APIError{Kind: ErrUnknown, StatusCode: resp.StatusCode, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	return body, nil
}

func (c *Client) apiURL(segments ...string) *url.URL {
	clone := *c.baseURL
	clone.Path = strings.TrimSuffix(clone.Path, "/")
	for _, segment := range segments {
		clone.Path += "/" + segment
	}
	return &clone
}

// faultError extracts the engine's fault reason and detail from an error
// body, tolerating both the wrapped and the flat layout.
func faultError(body []byte) error {
	var payload struct {
		Fault struct {
			Reason string `json:"reason"`
			Detail string `json:"detail"`
		} `json:"fault"`
		Reason string `json:"reason"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		reason := payload.Fault.Reason
		detail := payload.Fault.Detail
		if reason == "" {
			reason = payload.Reason
		}
		if detail == "" {
			detail = payload.Detail
		}
		switch {
		case reason != "" && detail != "":
			return fmt.Errorf("%s: %s", reason, detail)
		case reason != "":
			return fmt.Errorf("%s", reason)
		case detail != "":
			return fmt.Errorf("%s", detail)
		}
	}
	return fmt.Errorf("status %d", http.StatusBadRequest)
}

// decodeCollection parses a top-level engine collection: either an object
// wrapping the element array under its singular name ({"vm": [...]}) or a
// bare array.
func decodeCollection(body []byte, wrapper string) ([]map[string]any, error) {
	var payload any
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return nil, err
	}
	switch typed := payload.(type) {
	case []any:
		return asMaps(typed, wrapper), nil
	case map[string]any:
		inner, ok := typed[wrapper]
		if !ok {
			return nil, nil
		}
		return asMaps(inner, wrapper), nil
	}
	return nil, fmt.Errorf("unexpected payload for %s collection", wrapper)
}
