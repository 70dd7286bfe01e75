package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/cgmflow/store"
)

func newListCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the groups of an output store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openExisting(output)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			keys, err := st.Keys(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, k := range keys {
				n, err := st.Get(ctx, k)
				if err != nil {
					return err
				}
				status := "ok"
				if failed, _ := n.Bool("failed"); failed {
					status = "failed"
				}
				fmt.Fprintf(w, "%-6s %s\n", status, k)
			}
			return nil
		},
	}
	addOutputFlag(cmd.Flags(), &output)
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show KEY",
		Short: "Print the attributes, datasets and sub-groups of one group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openExisting(output)
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := st.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printNode(cmd.OutOrStdout(), args[0], n, 0)
			return nil
		},
	}
	addOutputFlag(cmd.Flags(), &output)
	return cmd
}

// openExisting opens a store without creating it.
func (a *app) openExisting(path string) (*store.Store, error) {
	if path == "" {
		path = a.cfg.Output
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no output store at %s", path)
		}
		return nil, err
	}
	return store.Open(path)
}

func printNode(w io.Writer, name string, n *store.Node, depth int) {
	pad := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%s/\n", pad, name)
	for _, k := range n.AttrNames() {
		fmt.Fprintf(w, "%s  @%s = %v\n", pad, k, n.Attrs[k])
	}
	for _, k := range n.DatasetNames() {
		fmt.Fprintf(w, "%s  %s [%d]\n", pad, k, len(n.Datasets[k]))
	}
	for _, k := range n.ChildNames() {
		printNode(w, k, n.Children[k], depth+1)
	}
}
