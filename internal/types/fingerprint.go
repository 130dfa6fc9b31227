package types

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// InputHash computes a deterministic digest over the request fields that
// affect report content. Equal logical inputs always hash identically,
// including across process restarts: every field is trimmed and lower-cased,
// list fields are sorted, and fields are joined in a fixed order rather than
// relying on map or JSON key ordering.
func (r *AnalysisRequest) InputHash() string {
	reqs := make([]string, 0, len(r.Requirements))
	for _, req := range r.Requirements {
		if c := canonField(req); c != "" {
			reqs = append(reqs, c)
		}
	}
	sort.Strings(reqs)

	skills := make([]string, 0, len(r.Profile.Skills))
	for _, s := range r.Profile.Skills {
		if c := canonField(s); c != "" {
			skills = append(skills, c)
		}
	}
	sort.Strings(skills)

	parts := []string{
		canonField(r.JobTitle),
		canonField(r.Company),
		canonField(r.Location),
		canonField(r.JobDescription),
		strings.Join(reqs, ","),
		canonField(r.PostedSalary),
		canonField(r.Profile.CareerLevel),
		fmt.Sprintf("%d", r.Profile.YearsExperience),
		strings.Join(skills, ","),
		canonField(r.Profile.Location),
		canonSalary(r.Profile.CurrentSalary),
		canonSalary(r.Profile.ExpectedSalary),
		canonField(r.Profile.WorkModePref),
	}

	hash := sha256.Sum256([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(hash[:])
}

// canonField collapses internal whitespace runs so inputs differing only in
// irrelevant whitespace hash identically.
func canonField(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func canonSalary(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}
