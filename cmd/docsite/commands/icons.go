package commands

import (
	"fmt"

	"git.home.luguber.info/inful/docsite/internal/icons"
)

// IconsCmd implements the 'icons' command.
type IconsCmd struct{}

func (i *IconsCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig()
	if err != nil {
		return err
	}
	resolver, err := icons.Load(cfg.Icons.Catalog)
	if err != nil {
		return err
	}
	for _, name := range resolver.Names() {
		fmt.Fprintln(g.Out, name)
	}
	return nil
}
