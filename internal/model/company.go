// Package model defines the shared data types for website resolution.
package model

import "time"

// NotAvailable is the terminal sentinel for a company whose website could
// not be resolved. It is the only valid non-URL value of Resolution.URL.
const NotAvailable = "Not Available"

// Stage identifies which pipeline stage produced a candidate or result.
type Stage string

const (
	StageNameEmbeddedDomain Stage = "name_embedded_domain"
	StageDomainVariation    Stage = "domain_variation"
	StageOfficialSiteSearch Stage = "official_site_search"
	StageCompanySearch      Stage = "company_search"
	StageLinkedInProfile    Stage = "linkedin_profile"
	StageDirectoryLookup    Stage = "directory_lookup"
	StageLastResort         Stage = "last_resort"
	StageModelJudgment      Stage = "model_judgment"

	// MethodCrossValidated marks a result accepted because two or more
	// independent stages agreed on the same registrable domain.
	MethodCrossValidated Stage = "cross_validated"
	// MethodExhausted marks a resolution that ran out of stages with no
	// acceptable candidate.
	MethodExhausted Stage = "exhausted"
)

// CompanyQuery is the immutable input to one resolution.
type CompanyQuery struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	EmployeeCountHint string `json:"employees,omitempty"`
}

// Candidate is a URL proposed by a pipeline stage. URL is always in origin
// form (scheme + host, no path).
type Candidate struct {
	URL      string `json:"url"`
	Stage    Stage  `json:"stage"`
	Evidence string `json:"evidence,omitempty"`
}

// ScoredCandidate pairs a candidate with a stage-local confidence in [0,1].
// Title-keyword and domain-similarity confidences are not numerically
// comparable; callers must not mix them in one comparison.
type ScoredCandidate struct {
	Candidate
	Confidence float64 `json:"confidence"`
}

// Resolution is the terminal output of one company's resolution. URL is
// either a validated absolute origin or NotAvailable.
type Resolution struct {
	URL        string   `json:"website"`
	Method     Stage    `json:"method"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// Resolved reports whether the resolution produced a usable URL.
func (r Resolution) Resolved() bool {
	return r.URL != "" && r.URL != NotAvailable
}

// Conf is a convenience constructor for Resolution.Confidence.
func Conf(v float64) *float64 { return &v }

// RunStatus represents the state of a persisted resolution run.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one persisted resolution attempt for a company.
type Run struct {
	ID        string       `json:"id"`
	Company   CompanyQuery `json:"company"`
	Status    RunStatus    `json:"status"`
	Result    *Resolution  `json:"result,omitempty"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// OutputRecord is the export shape: the input record plus the resolved
// website column.
type OutputRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Employees string `json:"employees"`
	Website   string `json:"website"`
}
