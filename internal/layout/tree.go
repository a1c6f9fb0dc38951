package layout

import (
	"git.home.luguber.info/inful/docsite/internal/icons"
	"git.home.luguber.info/inful/docsite/internal/source"
)

// TreeNode is the JSON form of a page tree node with its icon resolved.
type TreeNode struct {
	Type        source.NodeType `json:"type"`
	Name        string          `json:"name"`
	URL         string          `json:"url,omitempty"`
	Icon        *icons.Handle   `json:"icon,omitempty"`
	Description string          `json:"description,omitempty"`
	External    bool            `json:"external,omitempty"`
	DefaultOpen bool            `json:"defaultOpen,omitempty"`
	Index       *TreeNode       `json:"index,omitempty"`
	Children    []*TreeNode     `json:"children,omitempty"`
}

// Tree converts a page tree, resolving every icon name through r.
func Tree(n *source.Node, r *icons.Resolver) *TreeNode {
	if n == nil {
		return nil
	}
	out := &TreeNode{
		Type:        n.Type,
		Name:        n.Name,
		URL:         n.URL,
		Description: n.Description,
		External:    n.External,
		DefaultOpen: n.DefaultOpen,
		Index:       Tree(n.Index, r),
	}
	if h, ok := r.Resolve(n.Icon); ok {
		out.Icon = &h
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, Tree(c, r))
	}
	return out
}
