package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// Option names recognized in a datacenter section.
const (
	OptURL        = "ovirt_url"
	OptUsername   = "ovirt_username"
	OptPassword   = "ovirt_password"
	OptCAFile     = "ovirt_ca"
	OptInsecure   = "ovirt_api_insecure"
	OptQueryDC    = "ovirt_dc"
	OptNICName    = "ovirt_nic_name"
	OptIPRegex    = "ovirt_ip_regex"
	OptTagControl = "ovirt_tag_control"
	OptTagWorker  = "ovirt_tag_worker"
	OptConsulDC   = "consul_dc"

	OptSSHUser = "ansible_ssh_user"
	OptSSHKey  = "ansible_ssh_private_key_file"
	OptSSHPort = "ansible_ssh_port"
	OptSSHPass = "ansible_ssh_pass"
)

// Role names recognized by the inventory. Each maps to the section option
// carrying its engine tag.
const (
	RoleControl = "control"
	RoleWorker  = "worker"
)

// Defaults applied when neither a section nor the [DEFAULT] block sets an
// option.
const (
	DefaultIPRegex    = `^(\d+).(\d+).(\d+).(\d+)$`
	DefaultControlTag = "mi-control"
	DefaultWorkerTag  = "mi-worker"
)

// Datacenter is the resolved view of one configuration section: endpoint
// and credentials, query settings, IP selection policy and the group vars
// its hosts inherit.
type Datacenter struct {
	Name     string
	URL      string
	Username string
	Password string
	CAFile   string
	Insecure bool

	// QueryDC, when set, replaces Name in the engine search expression.
	QueryDC string

	NICName string
	IPRegex string

	// RoleTags maps a role name to the engine tag its VMs carry.
	RoleTags map[string]string

	ConsulDC string

	// GroupVars holds the optional SSH settings present in the section,
	// already coerced to their declared types.
	GroupVars map[string]any
}

// Store holds the parsed configuration file. Sections keep file order;
// values from the [DEFAULT] block apply to every section.
type Store struct {
	names    []string
	sections map[string]map[string]string
	defaults map[string]string
}

// Load parses the INI file at path. A missing file yields an empty store,
// not an error: an inventory with no datacenters is a valid, empty one.
func Load(path string) (*Store, error) {
	store := &Store{
		sections: map[string]map[string]string{},
		defaults: map[string]string{},
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return store, nil
	}
	file, err := ini.LoadSources(ini.LoadOptions{InsensitiveKeys: true}, path)
	if err != nil {
		return nil, &Error{Kind: ErrMalformed, Err: err}
	}
	for _, section := range file.Sections() {
		if section.Name() == ini.DefaultSection {
			store.defaults = section.KeysHash()
			continue
		}
		store.names = append(store.names, section.Name())
		store.sections[section.Name()] = section.KeysHash()
	}
	return store, nil
}

// DatacenterNames returns the section names in file order.
func (s *Store) DatacenterNames() []string {
	return append([]string(nil), s.names...)
}

// Datacenter resolves one section against the [DEFAULT] block and the
// built-in defaults. The endpoint trio (url, username, password) is
// mandatory; everything else falls back.
func (s *Store) Datacenter(name string) (Datacenter, error) {
	section, ok := s.sections[name]
	if !ok {
		return Datacenter{}, &Error{Kind: ErrUnknownSection, Section: name}
	}

	lookup := func(option string) (string, bool) {
		if value, ok := section[option]; ok {
			return value, true
		}
		if value, ok := s.defaults[option]; ok {
			return value, true
		}
		return "", false
	}

	dc := Datacenter{
		Name:      name,
		RoleTags:  map[string]string{},
		GroupVars: map[string]any{},
	}

	for _, option := range []struct {
		name string
		dst  *string
	}{
		{OptURL, &dc.URL},
		{OptUsername, &dc.Username},
		{OptPassword, &dc.Password},
	} {
		value, ok := lookup(option.name)
		if !ok {
			return Datacenter{}, &Error{Kind: ErrMissingOption, Section: name, Option: option.name}
		}
		*option.dst = value
	}

	for _, option := range datacenterOptions {
		value, ok := lookup(option.name)
		if !ok {
			value = option.fallback
		}
		if err := option.assign(&dc, value); err != nil {
			return Datacenter{}, &Error{Kind: ErrInvalidOption, Section: name, Option: option.name, Err: err}
		}
	}

	for _, option := range groupVarOptions {
		value, ok := lookup(option.name)
		if !ok {
			continue
		}
		converted, err := option.convert(value)
		if err != nil {
			return Datacenter{}, &Error{Kind: ErrInvalidOption, Section: name, Option: option.name, Err: err}
		}
		dc.GroupVars[option.name] = converted
	}

	return dc, nil
}

// datacenterOption describes one optional section key: the fallback used
// when neither the section nor the [DEFAULT] block sets it, and how its
// raw value lands on the Datacenter.
type datacenterOption struct {
	name     string
	fallback string
	assign   func(*Datacenter, string) error
}

var datacenterOptions = []datacenterOption{
	{name: OptCAFile, assign: func(dc *Datacenter, value string) error {
		dc.CAFile = value
		return nil
	}},
	{name: OptInsecure, assign: func(dc *Datacenter, value string) error {
		if value == "" {
			return nil
		}
		insecure, err := parseBool(value)
		if err != nil {
			return err
		}
		dc.Insecure = insecure
		return nil
	}},
	{name: OptQueryDC, assign: func(dc *Datacenter, value string) error {
		dc.QueryDC = value
		return nil
	}},
	{name: OptNICName, assign: func(dc *Datacenter, value string) error {
		dc.NICName = value
		return nil
	}},
	{name: OptIPRegex, fallback: DefaultIPRegex, assign: func(dc *Datacenter, value string) error {
		dc.IPRegex = value
		return nil
	}},
	{name: OptTagControl, fallback: DefaultControlTag, assign: func(dc *Datacenter, value string) error {
		dc.RoleTags[RoleControl] = value
		return nil
	}},
	{name: OptTagWorker, fallback: DefaultWorkerTag, assign: func(dc *Datacenter, value string) error {
		dc.RoleTags[RoleWorker] = value
		return nil
	}},
	{name: OptConsulDC, assign: func(dc *Datacenter, value string) error {
		dc.ConsulDC = value
		return nil
	}},
}

// groupVarOption describes one optional SSH key copied into the group
// vars, with the type its value is coerced to.
type groupVarOption struct {
	name    string
	convert func(string) (any, error)
}

var groupVarOptions = []groupVarOption{
	{name: OptSSHUser, convert: asString},
	{name: OptSSHKey, convert: asString},
	{name: OptSSHPort, convert: asInt},
	{name: OptSSHPass, convert: asString},
}

func asString(value string) (any, error) {
	return value, nil
}

func asInt(value string) (any, error) {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("not an integer: %q", value)
	}
	return parsed, nil
}

// parseBool accepts the usual INI boolean vocabulary.
func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "yes", "true", "on":
		return true, nil
	case "0", "no", "false", "off":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", value)
}
