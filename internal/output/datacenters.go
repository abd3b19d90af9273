package output

import (
	"github.com/pterm/pterm"

	"github.com/mi-ops/ovirt-inventory/internal/config"
)

// DatacenterSummary is the printable view of one configured section. The
// password never appears in it.
type DatacenterSummary struct {
	Name       string `json:"name" yaml:"name"`
	URL        string `json:"url" yaml:"url"`
	Username   string `json:"username" yaml:"username"`
	QueryDC    string `json:"query_dc,omitempty" yaml:"query_dc,omitempty"`
	ConsulDC   string `json:"consul_dc,omitempty" yaml:"consul_dc,omitempty"`
	ControlTag string `json:"control_tag" yaml:"control_tag"`
	WorkerTag  string `json:"worker_tag" yaml:"worker_tag"`
	NICName    string `json:"nic_name,omitempty" yaml:"nic_name,omitempty"`
	IPRegex    string `json:"ip_regex" yaml:"ip_regex"`
	Insecure   bool   `json:"insecure,omitempty" yaml:"insecure,omitempty"`
}

func SummarizeDatacenter(dc config.Datacenter) DatacenterSummary {
	return DatacenterSummary{
		Name:       dc.Name,
		URL:        dc.URL,
		Username:   dc.Username,
		QueryDC:    dc.QueryDC,
		ConsulDC:   dc.ConsulDC,
		ControlTag: dc.RoleTags[config.RoleControl],
		WorkerTag:  dc.RoleTags[config.RoleWorker],
		NICName:    dc.NICName,
		IPRegex:    dc.IPRegex,
		Insecure:   dc.Insecure,
	}
}

func RenderDatacenters(dcs []DatacenterSummary, mode Mode) error {
	switch mode {
	case ModeJSON:
		return EmitJSON(dcs)
	case ModeYAML:
		return EmitYAML(dcs)
	default:
		return renderDatacenterTable(dcs)
	}
}

func renderDatacenterTable(dcs []DatacenterSummary) error {
	InitStyles()
	if len(dcs) == 0 {
		pterm.Println("No datacenters configured.")
		return nil
	}
	columns := []string{"Datacenter", "URL", "Username", "Control Tag", "Worker Tag", "Consul DC"}
	rows := make([][]string, 0, len(dcs))
	for _, dc := range dcs {
		rows = append(rows, []string{
			dc.Name,
			dc.URL,
			dc.Username,
			dc.ControlTag,
			dc.WorkerTag,
			valueOrDash(dc.ConsulDC),
		})
	}
	table := pterm.DefaultTable.WithHasHeader().WithData(append([][]string{columns}, rows...))
	return table.Render()
}

func valueOrDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
