package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func baseRequest() AnalysisRequest {
	salary := 95000.0
	return AnalysisRequest{
		SubjectID:      "job-123",
		RequesterID:    "user-456",
		JobTitle:       "Senior Software Engineer",
		Company:        "Acme Corp",
		Location:       "Austin, TX",
		JobDescription: "Build and operate distributed systems.",
		Requirements:   []string{"Go", "PostgreSQL", "Kubernetes"},
		PostedSalary:   "$120,000 - $150,000",
		Profile: RequesterProfile{
			CareerLevel:     "senior",
			YearsExperience: 8,
			Skills:          []string{"Go", "SQL", "Terraform"},
			Location:        "Austin, TX",
			CurrentSalary:   &salary,
			WorkModePref:    "remote",
		},
	}
}

func TestInputHash_Deterministic(t *testing.T) {
	a := baseRequest()
	b := baseRequest()
	assert.Equal(t, a.InputHash(), b.InputHash())
}

func TestInputHash_IgnoresListOrder(t *testing.T) {
	a := baseRequest()
	b := baseRequest()
	b.Requirements = []string{"Kubernetes", "Go", "PostgreSQL"}
	b.Profile.Skills = []string{"Terraform", "SQL", "Go"}
	assert.Equal(t, a.InputHash(), b.InputHash())
}

func TestInputHash_IgnoresWhitespaceAndCase(t *testing.T) {
	a := baseRequest()
	b := baseRequest()
	b.JobTitle = "  senior   software ENGINEER "
	b.JobDescription = "Build and  operate\n distributed systems."
	assert.Equal(t, a.InputHash(), b.InputHash())
}

func TestInputHash_SensitiveToProfileFields(t *testing.T) {
	baseReq := baseRequest()
	base := baseReq.InputHash()

	tests := []struct {
		name   string
		mutate func(*AnalysisRequest)
	}{
		{"career level", func(r *AnalysisRequest) { r.Profile.CareerLevel = "staff" }},
		{"years experience", func(r *AnalysisRequest) { r.Profile.YearsExperience = 9 }},
		{"skills", func(r *AnalysisRequest) { r.Profile.Skills = append(r.Profile.Skills, "Rust") }},
		{"profile location", func(r *AnalysisRequest) { r.Profile.Location = "Denver, CO" }},
		{"salary context", func(r *AnalysisRequest) { r.Profile.CurrentSalary = nil }},
		{"work mode", func(r *AnalysisRequest) { r.Profile.WorkModePref = "hybrid" }},
		{"job description", func(r *AnalysisRequest) { r.JobDescription = "Something else" }},
		{"posted salary", func(r *AnalysisRequest) { r.PostedSalary = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			tt.mutate(&req)
			assert.NotEqual(t, base, req.InputHash())
		})
	}
}

func TestInputHash_IgnoresIdentityFields(t *testing.T) {
	// Subject and requester IDs are the cache key, not part of the content hash.
	a := baseRequest()
	b := baseRequest()
	b.SubjectID = "job-999"
	b.RequesterID = "user-999"
	assert.Equal(t, a.InputHash(), b.InputHash())
}
