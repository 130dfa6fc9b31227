package types

// RequesterProfile captures the profile fields that personalize an analysis.
type RequesterProfile struct {
	CareerLevel     string   `json:"career_level,omitempty"`
	YearsExperience int      `json:"years_experience,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	Location        string   `json:"location,omitempty"`
	CurrentSalary   *float64 `json:"current_salary,omitempty"`
	ExpectedSalary  *float64 `json:"expected_salary,omitempty"`
	WorkModePref    string   `json:"work_mode_pref,omitempty"` // remote, hybrid, onsite
}

// AnalysisRequest describes one salary intelligence request.
type AnalysisRequest struct {
	SubjectID      string           `json:"subject_id" validate:"required"`
	RequesterID    string           `json:"requester_id" validate:"required"`
	JobTitle       string           `json:"job_title" validate:"required"`
	Company        string           `json:"company" validate:"required"`
	Location       string           `json:"location"`
	JobDescription string           `json:"job_description"`
	Requirements   []string         `json:"requirements,omitempty"`
	PostedSalary   string           `json:"posted_salary,omitempty"`
	Profile        RequesterProfile `json:"profile"`
}
