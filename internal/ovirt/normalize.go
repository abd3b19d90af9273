package ovirt

import (
	"fmt"
	"strings"

	"github.com/mi-ops/ovirt-inventory/internal/types"
)

// normalizeVM maps one engine VM payload onto the normalized record. Field
// locations vary between engine versions (status as a bare string or as an
// object with a state), so lookups try each known shape in order. NICs stay
// nil when the payload has no nics key at all, which tells the client to
// fall back to a per-VM lookup.
func normalizeVM(raw map[string]any) types.VM {
	vm := types.VM{}
	vm.ID = firstString(raw, "id")
	vm.Name = firstString(raw, "name")
	vm.Status = firstString(raw, "status.state", "status")
	if value, ok := firstValue(raw, "nics"); ok {
		vm.NICs = normalizeNICs(value)
	}
	return vm
}

func normalizeNICs(value any) []types.NIC {
	raws := asMaps(value, "nic")
	nics := make([]types.NIC, 0, len(raws))
	for _, raw := range raws {
		nics = append(nics, normalizeNIC(raw))
	}
	return nics
}

func normalizeNIC(raw map[string]any) types.NIC {
	nic := types.NIC{Name: firstString(raw, "name")}
	if value, ok := firstValue(raw, "reported_devices", "reporteddevices"); ok {
		nic.Devices = normalizeDevices(value)
	}
	return nic
}

func normalizeDevices(value any) []types.ReportedDevice {
	raws := asMaps(value, "reported_device")
	devices := make([]types.ReportedDevice, 0, len(raws))
	for _, raw := range raws {
		device := types.ReportedDevice{Name: firstString(raw, "name")}
		if ips, ok := firstValue(raw, "ips.ip", "ips"); ok {
			device.IPs = normalizeIPs(ips)
		}
		devices = append(devices, device)
	}
	return devices
}

// normalizeIPs keeps the engine's address order; entries may be bare
// strings or objects carrying an address field.
func normalizeIPs(value any) []string {
	var out []string
	switch typed := value.(type) {
	case []any:
		for _, item := range typed {
			out = append(out, normalizeIPs(item)...)
		}
	case map[string]any:
		if address := firstString(typed, "address", "ip", "value"); address != "" {
			out = append(out, address)
		}
	case string:
		if typed != "" {
			out = append(out, typed)
		}
	}
	return out
}

// asMaps unwraps an engine collection nested inside another record: either
// a bare array, an object wrapping the array under the element name, or a
// single object standing for a one-element collection.
func asMaps(value any, wrapper string) []map[string]any {
	switch typed := value.(type) {
	case []any:
		out := make([]map[string]any, 0, len(typed))
		for _, item := range typed {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	case map[string]any:
		if inner, ok := typed[wrapper]; ok {
			return asMaps(inner, wrapper)
		}
		return []map[string]any{typed}
	}
	return nil
}

func firstString(raw map[string]any, paths ...string) string {
	for _, path := range paths {
		if value, ok := getString(raw, path); ok {
			return value
		}
	}
	return ""
}

func firstValue(raw map[string]any, paths ...string) (any, bool) {
	for _, path := range paths {
		if value, ok := getValue(raw, path); ok {
			return value, true
		}
	}
	return nil, false
}

func getString(raw map[string]any, path string) (string, bool) {
	value, ok := getValue(raw, path)
	if !ok {
		return "", false
	}
	switch typed := value.(type) {
	case string:
		return typed, typed != ""
	default:
		return fmt.Sprintf("%v", typed), true
	}
}

func getValue(raw map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var current any = raw
	for _, part := range parts {
		asMap, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = asMap[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
