package output

import "github.com/pterm/pterm"

// Problem is one configuration finding reported by the check command.
type Problem struct {
	Datacenter string `json:"datacenter" yaml:"datacenter"`
	Option     string `json:"option,omitempty" yaml:"option,omitempty"`
	Message    string `json:"message" yaml:"message"`
}

func RenderProblems(problems []Problem, mode Mode) error {
	switch mode {
	case ModeJSON:
		return EmitJSON(problems)
	case ModeYAML:
		return EmitYAML(problems)
	default:
		return renderProblemTable(problems)
	}
}

func renderProblemTable(problems []Problem) error {
	InitStyles()
	if len(problems) == 0 {
		pterm.Success.Println("Configuration OK")
		return nil
	}
	columns := []string{"Datacenter", "Option", "Problem"}
	rows := make([][]string, 0, len(problems))
	for _, problem := range problems {
		rows = append(rows, []string{
			problem.Datacenter,
			valueOrDash(problem.Option),
			problem.Message,
		})
	}
	table := pterm.DefaultTable.WithHasHeader().WithData(append([][]string{columns}, rows...))
	return table.Render()
}
