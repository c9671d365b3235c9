package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/pop-os/proc-modules/internal/inspector"
	"github.com/pop-os/proc-modules/pkg/modules"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var listOutput string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the currently loaded kernel modules",
	Long: `List reads the module table once and prints one row per loaded
module. Lines that fail to decode are reported on stderr; the command
still succeeds as long as the table itself was readable.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "output format (table|json)")
}

func runList(cmd *cobra.Command, args []string) error {
	logger, err := buildLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	insp, err := inspector.New(&inspector.Config{
		ProcPath: viper.GetString("proc"),
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	snapshot, err := insp.Snapshot(cmd.Context())
	if err != nil {
		return err
	}

	for _, decodeErr := range snapshot.DecodeErrors {
		fmt.Fprintf(os.Stderr, "warning: %v\n", decodeErr)
	}

	switch listOutput {
	case "json":
		return renderJSON(os.Stdout, snapshot.Records)
	case "table":
		return renderTable(os.Stdout, snapshot.Records)
	default:
		return fmt.Errorf("unknown output format %q", listOutput)
	}
}

func buildLogger() (*zap.Logger, error) {
	if viper.GetBool("verbose") {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func renderJSON(w io.Writer, records []modules.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func renderTable(w io.Writer, records []modules.Record) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tUSED BY\tDEPENDENCIES\tSTATE\tADDRESS")
	for _, record := range records {
		deps := "-"
		if len(record.Dependencies) > 0 {
			deps = strings.Join(record.Dependencies, ",")
		}
		address := "-"
		if record.Address != nil {
			address = fmt.Sprintf("0x%016x", *record.Address)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\n",
			record.Name, record.SizeBytes, record.Instances, deps, record.State, address)
	}
	return tw.Flush()
}
