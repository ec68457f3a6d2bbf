package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	appagenda "github.com/vperelman/dealflow/internal/application/agenda"
	"github.com/vperelman/dealflow/internal/infrastructure/database/postgres"
	"github.com/vperelman/dealflow/internal/infrastructure/database/postgres/repositories"
	"github.com/vperelman/dealflow/internal/infrastructure/monitoring/logging"
	"github.com/vperelman/dealflow/pkg/types/common"
)

func newAgendaCommand(opts *RootOptions) *cobra.Command {
	var owner string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Print the triaged agenda: overdue, due today and upcoming tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger := logging.NewNopLogger()

			conn, err := postgres.NewConnection(cfg.Database, logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			svc := appagenda.NewService(
				repositories.NewPostgresDealRepo(conn, logger),
				repositories.NewPostgresReminderRepo(conn, logger),
				repositories.NewPostgresClientRepo(conn, logger),
				nil,
				logger,
			)

			tr, err := svc.Compute(context.Background(), common.UserID(owner))
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tr)
			}
			printTriage(cmd.OutOrStdout(), tr)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "limit the agenda to one seller")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit JSON instead of a table")
	return cmd
}

func printTriage(w io.Writer, tr *appagenda.Triage) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	section := func(heading string, tasks []appagenda.Task) {
		if len(tasks) == 0 {
			return
		}
		fmt.Fprintf(tw, "%s (%d)\n", heading, len(tasks))
		for _, task := range tasks {
			name := task.ClientName
			if task.Kind == appagenda.TaskReminder {
				name = "(reminder)"
			}
			value := ""
			if task.Value != nil {
				value = task.Value.StringFixed(2)
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", task.Due.String(), name, task.Title, value)
		}
	}

	section("OVERDUE", tr.Overdue)
	section("TODAY", tr.Today)
	section("UPCOMING", tr.Upcoming)

	if tr.Total() == 0 {
		fmt.Fprintln(tw, "Nothing scheduled. All clear.")
	} else if tr.ValueAtRisk.IsPositive() {
		fmt.Fprintf(tw, "\nValue at risk: %s\n", tr.ValueAtRisk.StringFixed(2))
	}
	tw.Flush()
}
