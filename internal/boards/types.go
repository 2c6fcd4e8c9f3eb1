package boards

// namedValue is a backend object of which only the name matters here
// (work item types, workflow states).
type namedValue struct {
	Name string `json:"name"`
}

// listResponse is the common envelope of the work item type and state
// listing endpoints.
type listResponse struct {
	Count int          `json:"count"`
	Value []namedValue `json:"value"`
}

// patchOp is one JSON-patch operation of a work item create request.
type patchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value string `json:"value"`
}

// workItemResponse is the relevant subset of a created work item.
type workItemResponse struct {
	ID int `json:"id"`
}

// CreateRequest carries everything needed to create one work item.
type CreateRequest struct {
	ItemType    string
	Title       string
	Description string
	State       string
	Tags        string

	// HistoryNote, when non-blank, is added as a history entry on the
	// new item (used to record the originating sender).
	HistoryNote string
}

// CreatedItem identifies a work item the backend created.
type CreatedItem struct {
	ID  string
	URL string
}
