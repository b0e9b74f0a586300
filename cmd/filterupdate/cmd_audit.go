package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/filterupdate/pkg/audit"
	"github.com/newtron-network/filterupdate/pkg/cli"
)

func newAuditCmd() *cobra.Command {
	var (
		filter  audit.Filter
		last    string
		limit   int
		jsonOut bool
	)

	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "List recorded runs",
		Long: `List recorded filterupdate runs from the audit log.

Every run is logged with the AS-SET, prefix-list, device, resolution
method, prefix count and outcome.

Examples:
  filterupdate audit --device edge1
  filterupdate audit --as-set AS-EXAMPLE --last 24h
  filterupdate audit --failures`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if last != "" {
				d, err := time.ParseDuration(last)
				if err != nil {
					return fmt.Errorf("invalid duration: %s", last)
				}
				filter.StartTime = time.Now().Add(-d)
			}

			events, err := audit.Query(filter)
			if err != nil {
				return fmt.Errorf("querying audit log: %w", err)
			}
			// newest runs are at the end of the log
			if limit > 0 && len(events) > limit {
				events = events[len(events)-limit:]
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(events)
			}
			if len(events) == 0 {
				fmt.Fprintln(out, "No audit events found")
				return nil
			}

			t := cli.NewTableTo(out, "TIMESTAMP", "USER", "OPERATION", "AS-SET", "PREFIX-LIST", "DEVICE", "PREFIXES", "STATUS")
			for _, e := range events {
				status := cli.Green("ok")
				if !e.Success {
					status = cli.Red("failed")
				}
				dev := e.Device
				if dev == "" {
					dev = "-"
				}
				t.Row(
					e.Timestamp.Format("2006-01-02 15:04:05"),
					e.User,
					e.Operation,
					e.ASSet,
					e.PrefixList,
					dev,
					strconv.Itoa(e.Prefixes),
					status,
				)
			}
			t.Flush()
			return nil
		},
	}

	f := auditCmd.Flags()
	f.StringVar(&filter.Device, "device", "", "Filter by device")
	f.StringVar(&filter.ASSet, "as-set", "", "Filter by AS-SET")
	f.StringVar(&filter.PrefixList, "prefix-list", "", "Filter by prefix-list")
	f.StringVar(&filter.Operation, "operation", "", "Filter by operation (apply, render)")
	f.StringVar(&last, "last", "", "Show events from last duration (e.g., 24h)")
	f.IntVar(&limit, "limit", 100, "Show at most the latest N events")
	f.BoolVar(&filter.FailureOnly, "failures", false, "Show only failed runs")
	f.BoolVar(&jsonOut, "json", false, "Output as JSON")
	return auditCmd
}
