package main

import (
	"fmt"
	"os"

	"fjacquet/statement-reconciler/cmd/batches"
	"fjacquet/statement-reconciler/cmd/categorize"
	"fjacquet/statement-reconciler/cmd/importcmd"
	"fjacquet/statement-reconciler/cmd/invoices"
	"fjacquet/statement-reconciler/cmd/root"
	"fjacquet/statement-reconciler/cmd/undo"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(importcmd.Cmd)
	root.Cmd.AddCommand(undo.Cmd)
	root.Cmd.AddCommand(batches.Cmd)
	root.Cmd.AddCommand(invoices.Cmd)
	root.Cmd.AddCommand(categorize.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
