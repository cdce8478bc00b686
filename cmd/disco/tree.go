package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/broady/disco"
)

type TreeCmd struct {
	Prefix string `arg:"" optional:"" help:"Only print the subtree at this dotted path."`
}

func (c *TreeCmd) Run(g *Globals, out io.Writer, stderr *stderrWriter) error {
	client, err := g.client(context.Background(), g.logger(stderr))
	if err != nil {
		return err
	}
	root, ok := client.Lookup(c.Prefix)
	if !ok {
		return fmt.Errorf("no resource or method %q", c.Prefix)
	}

	fmt.Fprintf(out, "%s %s (%s)\n", client.Name(), client.Version(), client.BaseURL())
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	err = disco.Walk(root, func(n disco.Node) error {
		if n.Path() == "" {
			return nil
		}
		indent := strings.Repeat("  ", strings.Count(n.Path(), "."))
		switch n := n.(type) {
		case *disco.Namespace:
			fmt.Fprintf(tw, "%s%s/\t\t\n", indent, n.Name())
		case *disco.Method:
			s := n.Schema()
			fmt.Fprintf(tw, "%s%s\t%s\t%s\n", indent, n.Name(), n.HTTPMethod(), s.Path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return tw.Flush()
}
