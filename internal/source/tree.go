package source

// NodeType discriminates page tree nodes.
type NodeType string

const (
	NodePage      NodeType = "page"
	NodeFolder    NodeType = "folder"
	NodeSeparator NodeType = "separator"
	NodeLink      NodeType = "link"
)

// Node is one entry of the navigation tree built from the content layout and
// meta files. Folders carry their index page separately from their children.
type Node struct {
	Type        NodeType `json:"type"`
	Name        string   `json:"name"`
	URL         string   `json:"url,omitempty"`
	Icon        string   `json:"icon,omitempty"`
	Description string   `json:"description,omitempty"`
	External    bool     `json:"external,omitempty"`
	DefaultOpen bool     `json:"defaultOpen,omitempty"`
	Index       *Node    `json:"index,omitempty"`
	Children    []*Node  `json:"children,omitempty"`
}

// Walk visits n and its descendants depth-first, index pages before children.
// Returning false from fn stops the descent below that node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	if n.Index != nil {
		n.Index.Walk(fn)
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

func pageNode(p Page) *Node {
	return &Node{
		Type:        NodePage,
		Name:        p.Title,
		URL:         p.URL,
		Icon:        p.Icon,
		Description: p.Description,
	}
}

func (n *Node) empty() bool {
	return n.Type == NodeFolder && n.Index == nil && len(n.Children) == 0
}
