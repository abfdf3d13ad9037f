package domain

import "time"

type CaseStatus string

const (
	StatusOpen       CaseStatus = "Open"
	StatusInProgress CaseStatus = "Analysis In Progress"
	StatusReady      CaseStatus = "Ready"
	StatusClosed     CaseStatus = "Closed"
)

// Case groups the uploaded citation documents, the extracted fact sheet
// and the generated defense strategy for one user matter.
type Case struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Status         CaseStatus        `json:"status"`
	AnalysisLog    []string          `json:"analysis_log"`
	StructuredData map[string]string `json:"structured_data"`
	Analysis       string            `json:"analysis,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	ID        string    `json:"id"`
	CaseID    string    `json:"case_id"`
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
