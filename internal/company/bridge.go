// Package company collapses applicant name variants into company clusters.
package company

import (
	"sort"
	"strings"

	"github.com/sells-group/fda-apps/internal/model"
)

// DedupeApplicants drops exact duplicate (id, name) pairs and returns the
// remainder sorted by id ascending. The input slice is not modified.
func DedupeApplicants(applicants []model.Applicant) []model.Applicant {
	seen := make(map[model.Applicant]bool, len(applicants))
	out := make([]model.Applicant, 0, len(applicants))
	for _, a := range applicants {
		if seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// BuildLinks computes one link row per applicant. Every pair (i, j) with i
// before j is visited in order; when one name literally contains the other,
// the longer name's parent is set to the shorter name's id. A later match
// overwrites an earlier one, so an applicant matching several others ends up
// pointing at the last match visited, not the best one.
//
// applicants must be deduplicated and sorted by id (see DedupeApplicants).
func BuildLinks(applicants []model.Applicant) []model.Link {
	links := make([]model.Link, len(applicants))
	for k, a := range applicants {
		links[k] = model.Link{SelfID: a.ID, ParentID: a.ID}
	}

	for i := 0; i < len(applicants); i++ {
		for j := i + 1; j < len(applicants); j++ {
			switch {
			case strings.Contains(applicants[j].Name, applicants[i].Name):
				links[j].ParentID = applicants[i].ID
			case strings.Contains(applicants[i].Name, applicants[j].Name):
				links[i].ParentID = applicants[j].ID
			}
		}
	}

	return links
}

// Reparented counts links whose parent differs from self.
func Reparented(links []model.Link) int {
	n := 0
	for _, l := range links {
		if l.ParentID != l.SelfID {
			n++
		}
	}
	return n
}

// Cluster groups the applicants that link to one parent.
type Cluster struct {
	Parent  model.Applicant   `json:"parent" yaml:"parent"`
	Members []model.Applicant `json:"members" yaml:"members"`
}

// Clusters groups applicants by link parent, ordered by parent id. Members
// include the parent itself when it links to itself. Links whose ids are not
// among applicants are ignored.
func Clusters(applicants []model.Applicant, links []model.Link) []Cluster {
	byID := make(map[int64]model.Applicant, len(applicants))
	for _, a := range applicants {
		byID[a.ID] = a
	}

	members := make(map[int64][]model.Applicant)
	var parents []int64
	for _, l := range links {
		self, ok := byID[l.SelfID]
		if !ok {
			continue
		}
		if _, ok := byID[l.ParentID]; !ok {
			continue
		}
		if _, seen := members[l.ParentID]; !seen {
			parents = append(parents, l.ParentID)
		}
		members[l.ParentID] = append(members[l.ParentID], self)
	}

	sort.Slice(parents, func(i, j int) bool { return parents[i] < parents[j] })

	out := make([]Cluster, 0, len(parents))
	for _, p := range parents {
		m := members[p]
		sort.Slice(m, func(i, j int) bool { return m[i].ID < m[j].ID })
		out = append(out, Cluster{Parent: byID[p], Members: m})
	}
	return out
}
