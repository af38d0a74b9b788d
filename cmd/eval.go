package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/open-feature/flagtmpl/pkg/model"
	"github.com/open-feature/flagtmpl/pkg/provider"
)

func evaluate(client *provider.ValidatingClient, args []string, w io.Writer) error {
	kind, err := model.ParseKind(args[0])
	if err != nil {
		return err
	}

	var def interface{}
	if len(args) == 3 {
		if err := json.Unmarshal([]byte(args[2]), &def); err != nil {
			return fmt.Errorf("default must be a JSON value: %w", err)
		}
	}

	value, err := client.Variation(kind, args[1], def)
	if err != nil {
		return err
	}
	return json.NewEncoder(w).Encode(map[string]interface{}{
		"flagKey": args[1],
		"kind":    kind.String(),
		"value":   value,
	})
}

// evalCmd represents the eval command
var evalCmd = &cobra.Command{
	Use:   "eval <bool|string|number|json> <flag> [default]",
	Short: "Evaluate a single flag and print it as JSON",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := newRuntime()
		defer rt.Shutdown()
		client, err := rt.Client()
		if err != nil {
			return err
		}
		return evaluate(client, args, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)
}
