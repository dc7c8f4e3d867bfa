package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bartekus/vetgate/internal/projection"
	"github.com/bartekus/vetgate/internal/steps"
)

type stepListItem struct {
	Name        string `json:"name"`
	Gate        string `json:"gate,omitempty"`
	Skip        string `json:"skip_category,omitempty"`
	Description string `json:"description"`
}

func newStepsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "steps",
		Short: "List pipeline steps in their default order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items := make([]stepListItem, 0, len(steps.Infos()))
			for _, info := range steps.Infos() {
				items = append(items, stepListItem{
					Name:        info.Name,
					Gate:        string(info.Gate),
					Skip:        info.Category,
					Description: info.Description,
				})
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"steps": items})
			}
			return writeStepTable(cmd.OutOrStdout(), items)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func writeStepTable(w io.Writer, items []stepListItem) error {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		gate, skip := it.Gate, it.Skip
		if gate == "" {
			gate = "-"
		}
		if skip == "" {
			skip = "-"
		}
		rows = append(rows, []string{it.Name, gate, skip, it.Description})
	}
	_, err := fmt.Fprint(w, projection.RenderTable([]string{"STEP", "GATE", "SKIP", "DESCRIPTION"}, rows))
	return err
}
