package walker

// Node is a handle to one element of the observed UI graph.
//
// Handles may be scarce platform resources: every Node obtained from Child,
// and the root passed in an Observation, is released by the walker exactly
// once on every exit path.
// Node 是观察到的 UI 图中一个元素的句柄；walker 在所有退出路径上恰好释放一次。
type Node interface {
	PrimaryText() (string, error)
	Description() (string, error)
	// HintText is only consulted for edit-capable nodes.
	HintText() (string, error)
	NodeClass() (string, error)
	NodeID() (string, error)
	ChildCount() (int, error)
	// Child returns the i-th child. A nil Node with a nil error means the
	// child disappeared and is skipped.
	Child(i int) (Node, error)
	Release()
}

// Observation is one notification from the observing subsystem.
// Observation 是来自观察子系统的一次通知。
type Observation struct {
	SourceApp   string
	DisplayName string
	// Kind classifies the trigger, e.g. "window_content_changed".
	Kind string
	// Texts and Description are carried by the event itself and are emitted
	// before anything found in the tree.
	Texts       []string
	Description string
	Root        Node
}

// StaticNode is an in-memory Node, used for decoded observation feeds.
// StaticNode 是内存中的 Node，用于解码后的观察数据流。
type StaticNode struct {
	Text     string        `json:"text,omitempty"`
	Desc     string        `json:"description,omitempty"`
	Hint     string        `json:"hint,omitempty"`
	Class    string        `json:"class,omitempty"`
	ID       string        `json:"id,omitempty"`
	Children []*StaticNode `json:"children,omitempty"`
}

func (n *StaticNode) PrimaryText() (string, error) { return n.Text, nil }
func (n *StaticNode) Description() (string, error) { return n.Desc, nil }
func (n *StaticNode) HintText() (string, error)    { return n.Hint, nil }
func (n *StaticNode) NodeClass() (string, error)   { return n.Class, nil }
func (n *StaticNode) NodeID() (string, error)      { return n.ID, nil }
func (n *StaticNode) ChildCount() (int, error)     { return len(n.Children), nil }
func (n *StaticNode) Release()                     {}

func (n *StaticNode) Child(i int) (Node, error) {
	c := n.Children[i]
	if c == nil {
		return nil, nil
	}
	return c, nil
}
