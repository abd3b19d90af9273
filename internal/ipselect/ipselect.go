package ipselect

import (
	"fmt"
	"regexp"

	"github.com/mi-ops/ovirt-inventory/internal/types"
)

// The engine reports guest interfaces prefixed with "nic_"; the configured
// filter names the interface without the prefix.
const nicPrefix = "nic_"

// Policy is a datacenter's IP selection rule: an optional NIC name filter
// and a regular expression candidate addresses must match.
type Policy struct {
	NICName string
	IPRegex string
}

// Compile validates the policy. An empty pattern matches every address.
func (p Policy) Compile() (*Selector, error) {
	re, err := regexp.Compile(p.IPRegex)
	if err != nil {
		return nil, fmt.Errorf("invalid ip regex %q: %w", p.IPRegex, err)
	}
	return &Selector{nicName: p.NICName, re: re}, nil
}

// Selector picks the address to publish for a VM.
type Selector struct {
	nicName string
	re      *regexp.Regexp
}

// Resolve returns the first reported address matching the policy, walking
// NICs, devices and addresses in their listed order. The second return is
// false when the VM yields no usable address.
func (s *Selector) Resolve(vm types.VM) (string, bool) {
	for _, nic := range s.candidates(vm) {
		for _, device := range nic.Devices {
			for _, ip := range device.IPs {
				if s.matchesAtStart(ip) {
					return ip, true
				}
			}
		}
	}
	return "", false
}

// candidates narrows the NIC list to the configured interface. A filter
// naming an interface the VM does not have yields nothing.
func (s *Selector) candidates(vm types.VM) []types.NIC {
	if s.nicName == "" {
		return vm.NICs
	}
	want := nicPrefix + s.nicName
	for _, nic := range vm.NICs {
		if nic.Name == want {
			return []types.NIC{nic}
		}
	}
	return nil
}

// matchesAtStart requires the match to begin at the first byte of the
// address but not to span all of it.
func (s *Selector) matchesAtStart(ip string) bool {
	loc := s.re.FindStringIndex(ip)
	return loc != nil && loc[0] == 0
}
