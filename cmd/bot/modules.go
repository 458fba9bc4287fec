package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/PancyStudios/ApexieGo/pkg/discord"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List the discovered modules and load diagnostics without connecting",
	RunE:  listModules,
}

func listModules(cmd *cobra.Command, _ []string) error {
	cfg, err := boot()
	if err != nil {
		return err
	}

	cmds, evs := discord.NewCommandRegistry(), discord.NewEventRegistry()
	failures := discord.LoadModules(sources(cfg), cmds, evs)

	out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(out, "KIND\tNAME\tSCOPE\tSOURCE")
	for _, c := range cmds.All() {
		fmt.Fprintf(out, "command\t%s\t%s\t%s\n", c.Name, c.Scope, c.Source)
	}
	for _, typ := range evs.Types() {
		for _, ev := range evs.Handlers(typ) {
			fmt.Fprintf(out, "event\t%s\t%s\t%s\n", ev.Name, typ, ev.Source)
		}
	}
	if err := out.Flush(); err != nil {
		return err
	}

	diags := append(failures, cmds.Diagnostics()...)
	diags = append(diags, evs.Diagnostics()...)
	if len(diags) == 0 {
		return nil
	}
	fmt.Fprintf(os.Stderr, "\n%d diagnósticos:\n", len(diags))
	for _, d := range diags {
		fmt.Fprintf(os.Stderr, "  - %v\n", d)
	}
	return nil
}
