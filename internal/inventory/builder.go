package inventory

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mi-ops/ovirt-inventory/internal/config"
	"github.com/mi-ops/ovirt-inventory/internal/ipselect"
	"github.com/mi-ops/ovirt-inventory/internal/types"
)

// Roles supported by the inventory, in emission order. The fixed slice
// keeps group construction deterministic across runs.
var Roles = []string{config.RoleControl, config.RoleWorker}

// VMSource lists the VM records matching an engine search expression.
type VMSource interface {
	SearchVMs(ctx context.Context, query string) ([]types.VM, error)
}

// ConnectFunc opens a VMSource for one configured datacenter.
type ConnectFunc func(ctx context.Context, dc config.Datacenter) (VMSource, error)

// Builder assembles the inventory document from the configuration store
// and the engine endpoints it names.
type Builder struct {
	store   *config.Store
	connect ConnectFunc

	// Verbose, when set, receives per-query progress lines. It must not
	// be the process stdout: that stream carries the inventory itself.
	Verbose io.Writer
}

func NewBuilder(store *config.Store, connect ConnectFunc) *Builder {
	return &Builder{store: store, connect: connect}
}

// Build runs every datacenter and role query and assembles the document.
// Any configuration, connection or query failure aborts the whole build:
// a partial inventory is never returned. A host appearing under several
// roles or datacenters lands in every matching group; its _meta entry is
// the last one written.
func (b *Builder) Build(ctx context.Context) (*Document, error) {
	doc := NewDocument()
	for _, name := range b.store.DatacenterNames() {
		dc, err := b.store.Datacenter(name)
		if err != nil {
			return nil, err
		}
		selector, err := ipselect.Policy{NICName: dc.NICName, IPRegex: dc.IPRegex}.Compile()
		if err != nil {
			return nil, fmt.Errorf("datacenter %s: %w", name, err)
		}
		source, err := b.connect(ctx, dc)
		if err != nil {
			return nil, fmt.Errorf("datacenter %s: %w", name, err)
		}

		dcGroup := doc.SetGroup(name)
		dcGroup.Vars = groupVars(dc)

		for _, role := range Roles {
			roleGroup := doc.EnsureGroup("role=" + role)
			query := searchQuery(queryDatacenter(dc), dc.RoleTags[role])
			vms, err := source.SearchVMs(ctx, query)
			if err != nil {
				return nil, fmt.Errorf("datacenter %s: %w", name, err)
			}
			hosts := resolveHosts(vms, selector)
			vars := HostVars{Role: role, DC: name, ConsulDC: consulDatacenter(dc)}
			for _, host := range hosts {
				roleGroup.Hosts = append(roleGroup.Hosts, host)
				dcGroup.Hosts = append(dcGroup.Hosts, host)
				doc.Meta.HostVars[host] = vars
			}
			b.logf("datacenter=%s role=%s query=%q vms=%d hosts=%d", name, role, query, len(vms), len(hosts))
		}
	}
	return doc, nil
}

// resolveHosts keeps the addresses of running VMs the selector can
// resolve, in query order. VMs that are not up or yield no address are
// skipped without error.
func resolveHosts(vms []types.VM, selector *ipselect.Selector) []string {
	var hosts []string
	for _, vm := range vms {
		if vm.Status != types.StatusUp {
			continue
		}
		host, ok := selector.Resolve(vm)
		if !ok {
			continue
		}
		hosts = append(hosts, host)
	}
	return hosts
}

// groupVars builds a datacenter group's vars: the optional SSH settings
// present in the section plus the section name under "dc".
func groupVars(dc config.Datacenter) map[string]any {
	vars := make(map[string]any, len(dc.GroupVars)+1)
	for key, value := range dc.GroupVars {
		vars[key] = value
	}
	vars["dc"] = dc.Name
	return vars
}

// queryDatacenter is the datacenter name used in the engine search: the
// ovirt_dc alias when configured, the section name otherwise.
func queryDatacenter(dc config.Datacenter) string {
	if dc.QueryDC != "" {
		return dc.QueryDC
	}
	return dc.Name
}

func consulDatacenter(dc config.Datacenter) string {
	if dc.ConsulDC != "" {
		return dc.ConsulDC
	}
	return dc.Name
}

// searchQuery joins the datacenter clause with an optional tag clause in
// the engine's conjunction syntax.
func searchQuery(datacenter, tag string) string {
	clauses := []string{"datacenter=" + datacenter}
	if tag != "" {
		clauses = append(clauses, "tag="+tag)
	}
	return strings.Join(clauses, " and ")
}

func (b *Builder) logf(format string, args ...any) {
	if b.Verbose == nil {
		return
	}
	fmt.Fprintf(b.Verbose, format+"\n", args...)
}
