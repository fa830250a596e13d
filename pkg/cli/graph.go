package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/klothoplatform/pdk/pkg/nxplugin"
	"github.com/klothoplatform/pdk/pkg/project"
	"github.com/spf13/cobra"
)

func (c *commands) runGraph(cmd *cobra.Command, args []string) error {
	r, err := c.loadRoot(false)
	if err != nil {
		return err
	}
	if err := r.Prepare(cmd.Context()); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROJECT\tKIND\tLANGUAGE\tDIRECTORY")
	for _, p := range r.Projects() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, project.KindName(p.Kind), p.Language, p.OutDir)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	edges, err := r.Registry.Edges()
	if err != nil {
		return err
	}
	if len(edges) > 0 {
		fmt.Fprintln(c.stdout)
		for _, e := range edges {
			fmt.Fprintf(c.stdout, "%s -> %s (%s)\n", e.Dependent, e.Dependee, e.Kind)
		}
	}

	order, err := r.Registry.TopologicalOrder()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "\nBuild order: %s\n", strings.Join(order, ", "))
	return nil
}

func (c *commands) runNxPlugin(cmd *cobra.Command, args []string) error {
	in, err := io.ReadAll(c.stdin)
	if err != nil {
		return err
	}
	var graph nxplugin.ProjectGraph
	if err := json.Unmarshal(in, &graph); err != nil {
		return fmt.Errorf("could not parse project graph: %w", err)
	}
	out, err := nxplugin.ProcessFromWorkspace(cmd.Context(), graph, c.workspace)
	if err != nil {
		return err
	}
	return json.NewEncoder(c.stdout).Encode(out)
}
