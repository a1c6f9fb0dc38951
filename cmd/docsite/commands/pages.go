package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
)

// PagesCmd implements the 'pages' command.
type PagesCmd struct{}

func (p *PagesCmd) Run(g *Global, root *CLI) error {
	s, err := openSession(context.Background(), root)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(g.Out, 0, 4, 2, ' ', 0)
	for _, page := range s.daemon.Catalog().Current().Pages() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", page.URL, page.Title, page.File)
	}
	return tw.Flush()
}
