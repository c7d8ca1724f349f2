package domain

// Request bodies for the Redmine REST API. Redmine wraps every writable entity in an
// object keyed by its singular name, e.g. {"issue": {...}}.

// IssueFields contains the writable fields of an issue.
type IssueFields struct {
	ProjectID      string `json:"project_id,omitempty"`
	TrackerID      int64  `json:"tracker_id,omitempty"`
	StatusID       int64  `json:"status_id,omitempty"`
	PriorityID     int64  `json:"priority_id,omitempty"`
	Subject        string `json:"subject,omitempty"`
	Description    string `json:"description,omitempty"`
	AssignedToID   int64  `json:"assigned_to_id,omitempty"`
	FixedVersionID int64  `json:"fixed_version_id,omitempty"`
	ParentIssueID  int64  `json:"parent_issue_id,omitempty"`
	StartDate      string `json:"start_date,omitempty"`
	DueDate        string `json:"due_date,omitempty"`
	DoneRatio      *int64 `json:"done_ratio,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// IssuePayload is the request body for creating or updating an issue.
type IssuePayload struct {
	Issue IssueFields `json:"issue"`
}

// ProjectFields contains the writable fields of a project.
type ProjectFields struct {
	Name        string `json:"name,omitempty"`
	Identifier  string `json:"identifier,omitempty"`
	Description string `json:"description,omitempty"`
	Homepage    string `json:"homepage,omitempty"`
	IsPublic    *bool  `json:"is_public,omitempty"`
	ParentID    int64  `json:"parent_id,omitempty"`
}

// ProjectPayload is the request body for creating or updating a project.
type ProjectPayload struct {
	Project ProjectFields `json:"project"`
}

// VersionFields contains the writable fields of a version (milestone).
type VersionFields struct {
	Name        string `json:"name,omitempty"`
	Status      string `json:"status,omitempty"` // open, locked or closed
	Sharing     string `json:"sharing,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
	Description string `json:"description,omitempty"`
}

// VersionPayload is the request body for creating or updating a version.
type VersionPayload struct {
	Version VersionFields `json:"version"`
}

// ListOptions are the pagination parameters shared by Redmine collection endpoints.
type ListOptions struct {
	Limit  int64
	Offset int64
}

// IssueFilter narrows an issue listing.
type IssueFilter struct {
	ListOptions
	ProjectID    string
	TrackerID    int64
	StatusID     string // "open", "closed", "*" or a numeric id
	AssignedToID string // numeric id or "me"
	Sort         string
}
