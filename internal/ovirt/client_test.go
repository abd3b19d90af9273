package ovirt

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mi-ops/ovirt-inventory/internal/types"
)

const probeBody = `{"product_info":{"name":"oVirt Engine","version":{"major":4}}}`

func newEngine(t *testing.T, vmsHandler http.HandlerFunc) Options {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, probeBody)
	})
	if vmsHandler != nil {
		mux.HandleFunc("/api/vms", vmsHandler)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return Options{
		URL:      server.URL + "/api",
		Username: "admin@internal",
		Password: "secret",
	}
}

func TestConnectSendsBasicAuth(t *testing.T) {
	var gotUser, gotPass string
	mux := http.NewServeMux()
	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		fmt.Fprint(w, probeBody)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	_, err := Connect(context.Background(), Options{
		URL:      server.URL + "/api",
		Username: "admin@internal",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "admin@internal", gotUser)
	assert.Equal(t, "secret", gotPass)
}

func TestConnectAuthFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	_, err := Connect(context.Background(), Options{URL: server.URL + "/api"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrAuthFailed, apiErr.Kind)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestConnectUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL + "/api"
	server.Close()

	_, err := Connect(context.Background(), Options{URL: endpoint})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrUnreachable, apiErr.Kind)
}

func TestConnectMissingCAFile(t *testing.T) {
	_, err := Connect(context.Background(), Options{
		URL:    "https://engine.example.com/api",
		CAFile: filepath.Join(t.TempDir(), "missing.pem"),
	})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrTLSConfig, apiErr.Kind)
}

func TestConnectUnparsableCAFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a certificate"), 0o600))

	_, err := Connect(context.Background(), Options{
		URL:    "https://engine.example.com/api",
		CAFile: path,
	})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrTLSConfig, apiErr.Kind)
}

func TestConnectInsecureSkipsVerification(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, probeBody)
	})
	server := httptest.NewTLSServer(mux)
	defer server.Close()

	_, err := Connect(context.Background(), Options{URL: server.URL + "/api", Insecure: true})
	require.NoError(t, err)

	_, err = Connect(context.Background(), Options{URL: server.URL + "/api"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrUnreachable, apiErr.Kind)
}

func TestSearchVMs(t *testing.T) {
	var gotSearch, gotFollow string
	opts := newEngine(t, func(w http.ResponseWriter, r *http.Request) {
		gotSearch = r.URL.Query().Get("search")
		gotFollow = r.URL.Query().Get("follow")
		fmt.Fprint(w, `{
  "vm": [
    {
      "id": "vm-1",
      "name": "ctrl-0",
      "status": "up",
      "nics": {
        "nic": [
          {
            "name": "nic_eth0",
            "reported_devices": {
              "reported_device": [
                {"name": "eth0", "ips": {"ip": [{"address": "10.0.0.5"}, {"address": "fe80::1"}]}}
              ]
            }
          }
        ]
      }
    },
    {
      "id": "vm-2",
      "name": "wrk-0",
      "status": {"state": "down"},
      "nics": {"nic": []}
    }
  ]
}`)
	})

	client, err := Connect(context.Background(), opts)
	require.NoError(t, err)

	vms, err := client.SearchVMs(context.Background(), "datacenter=dc1 and tag=mi-control")
	require.NoError(t, err)
	assert.Equal(t, "datacenter=dc1 and tag=mi-control", gotSearch)
	assert.Equal(t, followParam, gotFollow)

	require.Len(t, vms, 2)
	assert.Equal(t, types.VM{
		ID:     "vm-1",
		Name:   "ctrl-0",
		Status: "up",
		NICs: []types.NIC{
			{Name: "nic_eth0", Devices: []types.ReportedDevice{
				{Name: "eth0", IPs: []string{"10.0.0.5", "fe80::1"}},
			}},
		},
	}, vms[0])
	assert.Equal(t, "down", vms[1].Status)
	assert.NotNil(t, vms[1].NICs)
	assert.Empty(t, vms[1].NICs)
}

func TestSearchVMsBadQuery(t *testing.T) {
	opts := newEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"fault":{"reason":"Operation Failed","detail":"Invalid search query"}}`)
	})

	client, err := Connect(context.Background(), opts)
	require.NoError(t, err)

	_, err = client.SearchVMs(context.Background(), "datacenter=dc1 and tag=")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrBadQuery, apiErr.Kind)
	assert.Contains(t, err.Error(), "Invalid search query")
}

func TestSearchVMsNICFallback(t *testing.T) {
	var fallbackFollow string
	mux := http.NewServeMux()
	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, probeBody)
	})
	mux.HandleFunc("/api/vms", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"vm":[{"id":"vm-9","name":"lone","status":"up"}]}`)
	})
	mux.HandleFunc("/api/vms/vm-9/nics", func(w http.ResponseWriter, r *http.Request) {
		fallbackFollow = r.URL.Query().Get("follow")
		fmt.Fprint(w, `{"nic":[{"name":"nic_eth0","reported_devices":[{"name":"eth0","ips":["10.0.0.9"]}]}]}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := Connect(context.Background(), Options{URL: server.URL + "/api"})
	require.NoError(t, err)

	vms, err := client.SearchVMs(context.Background(), "datacenter=dc1")
	require.NoError(t, err)
	assert.Equal(t, "reported_devices", fallbackFollow)
	require.Len(t, vms, 1)
	require.Len(t, vms[0].NICs, 1)
	assert.Equal(t, []string{"10.0.0.9"}, vms[0].NICs[0].Devices[0].IPs)
}

func TestSearchVMsEmptyResult(t *testing.T) {
	opts := newEngine(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"vm":[]}`)
	})

	client, err := Connect(context.Background(), opts)
	require.NoError(t, err)

	vms, err := client.SearchVMs(context.Background(), "datacenter=empty")
	require.NoError(t, err)
	assert.Empty(t, vms)
}
