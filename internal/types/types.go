package types

// VM is a normalized view of an oVirt virtual machine record.
type VM struct {
	ID     string
	Name   string
	Status string
	NICs   []NIC
}

// NIC is a network interface attached to a VM, together with the devices
// the guest agent reported for it.
type NIC struct {
	Name    string
	Devices []ReportedDevice
}

// ReportedDevice holds the addresses the guest agent reported for one
// device. Address order is preserved as delivered by the engine.
type ReportedDevice struct {
	Name string
	IPs  []string
}

// StatusUp is the engine state of a running VM. Only VMs in this state
// are eligible for the inventory.
const StatusUp = "up"
