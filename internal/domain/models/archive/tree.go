package archive

// TreeNode is one node of a lazily expanded directory tree. When the
// requested depth is exhausted on a node that still has children,
// HasChildren stays true while ChildrenLoaded is false and Children is
// empty; the caller re-requests the tree rooted at that node's path.
type TreeNode struct {
	Name           string      `json:"name"`
	Path           string      `json:"path"`
	Type           FolderType  `json:"type"`
	EntityID       string      `json:"entity_id,omitempty"`
	HasChildren    bool        `json:"has_children"`
	ChildrenLoaded bool        `json:"children_loaded"`
	Children       []*TreeNode `json:"children"`
	FileCount      int         `json:"file_count"`   // direct children only
	FolderCount    int         `json:"folder_count"` // direct children only
	CanWrite       bool        `json:"can_write"`
	CanDelete      bool        `json:"can_delete"`
	ETag           string      `json:"etag"`
}
