package inventory

import "encoding/json"

const metaKey = "_meta"

// Group is one inventory group: an ordered host list and, for datacenter
// groups, the variables its hosts share. Role groups carry no vars and the
// field stays out of their JSON form.
type Group struct {
	Hosts []string       `json:"hosts"`
	Vars  map[string]any `json:"vars,omitempty"`
}

// HostVars are the per-host variables published under _meta for every host
// of one role within one datacenter.
type HostVars struct {
	Role     string `json:"role"`
	DC       string `json:"dc"`
	ConsulDC string `json:"consul_dc"`
}

// Meta is the reserved _meta block: host variables keyed by address.
type Meta struct {
	HostVars map[string]HostVars `json:"hostvars"`
}

// Document is the dynamic inventory: named groups plus the _meta block,
// serialized as a single JSON object.
type Document struct {
	Groups map[string]*Group
	Meta   *Meta
}

func NewDocument() *Document {
	return &Document{
		Groups: map[string]*Group{},
		Meta:   &Meta{HostVars: map[string]HostVars{}},
	}
}

// SetGroup installs a fresh empty group under name, replacing any previous
// one. The host list starts non-nil so an empty group serializes as [].
func (d *Document) SetGroup(name string) *Group {
	group := &Group{Hosts: []string{}}
	d.Groups[name] = group
	return group
}

// EnsureGroup returns the named group, creating an empty one on first use.
func (d *Document) EnsureGroup(name string) *Group {
	if group, ok := d.Groups[name]; ok {
		return group
	}
	return d.SetGroup(name)
}

// LookupHost returns the _meta entry for one host address.
func (d *Document) LookupHost(host string) (HostVars, bool) {
	if d.Meta == nil {
		return HostVars{}, false
	}
	vars, ok := d.Meta.HostVars[host]
	return vars, ok
}

// MarshalJSON flattens the groups and the _meta block into one top-level
// object, the layout Ansible expects from an inventory script.
func (d *Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Groups)+1)
	for name, group := range d.Groups {
		out[name] = group
	}
	meta := d.Meta
	if meta == nil {
		meta = &Meta{HostVars: map[string]HostVars{}}
	}
	out[metaKey] = meta
	return json.Marshal(out)
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Groups = make(map[string]*Group, len(raw))
	d.Meta = &Meta{HostVars: map[string]HostVars{}}
	for name, message := range raw {
		if name == metaKey {
			if err := json.Unmarshal(message, d.Meta); err != nil {
				return err
			}
			continue
		}
		group := &Group{}
		if err := json.Unmarshal(message, group); err != nil {
			return err
		}
		d.Groups[name] = group
	}
	return nil
}
