package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// CaseStatus enumerates the lifecycle states of a case record.
type CaseStatus string

const (
	CaseStatusDraft    CaseStatus = "draft"
	CaseStatusInReview CaseStatus = "in_review"
	CaseStatusApproved CaseStatus = "approved"
	CaseStatusActive   CaseStatus = "active"
	CaseStatusExpired  CaseStatus = "expired"
)

// ReviewDateLayout is the calendar-date format of AnnualReviewDate.
const ReviewDateLayout = "2006-01-02"

// Goal is an objective embedded in a case record. Progress is caller-supplied
// and not guaranteed to stay within [0,100]; consumers clamp defensively.
type Goal struct {
	ID       string `json:"id"`
	Area     string `json:"area"`
	Progress int    `json:"progress"`
}

// Service is a scheduled support service embedded in a case record.
type Service struct {
	Type      string `json:"type"`
	Frequency string `json:"frequency,omitempty"`
	Minutes   int    `json:"minutes,omitempty"`
}

// GoalList stores goals as a JSONB column.
type GoalList []Goal

// Value marshals goals for persistence.
func (g GoalList) Value() (driver.Value, error) {
	if g == nil {
		g = GoalList{}
	}
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("marshal goals: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB payload into the goal list.
func (g *GoalList) Scan(value interface{}) error {
	return scanJSON(value, g, "GoalList")
}

// ServiceList stores services as a JSONB column.
type ServiceList []Service

// Value marshals services for persistence.
func (s ServiceList) Value() (driver.Value, error) {
	if s == nil {
		s = ServiceList{}
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal services: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSONB payload into the service list.
func (s *ServiceList) Scan(value interface{}) error {
	return scanJSON(value, s, "ServiceList")
}

// CaseRecord represents an individualized education plan document. The core
// treats records as read-only; they are mutated by the editing surfaces of the
// host application.
type CaseRecord struct {
	ID               string         `db:"id" json:"id"`
	StudentName      string         `db:"student_name" json:"student_name"`
	Status           CaseStatus     `db:"status" json:"status"`
	Category         string         `db:"category" json:"category"`
	GradeLevel       string         `db:"grade_level" json:"grade_level"`
	AnnualReviewDate string         `db:"annual_review_date" json:"annual_review_date"`
	OwnerID          string         `db:"owner_id" json:"owner_id"`
	TeamMembers      pq.StringArray `db:"team_members" json:"team_members"`
	Goals            GoalList       `db:"goals" json:"goals"`
	Services         ServiceList    `db:"services" json:"services"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// AccessibleBy reports whether the actor may see this record. The team list
// is not guaranteed to contain the owner, so both clauses are required.
func (r *CaseRecord) AccessibleBy(actorID string) bool {
	if actorID == "" {
		return false
	}
	if r.OwnerID == actorID {
		return true
	}
	for _, member := range r.TeamMembers {
		if member == actorID {
			return true
		}
	}
	return false
}

// ReviewDate parses the annual review date.
func (r *CaseRecord) ReviewDate() (time.Time, error) {
	t, err := time.Parse(ReviewDateLayout, r.AnnualReviewDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse annual review date %q: %w", r.AnnualReviewDate, err)
	}
	return t, nil
}

func scanJSON(value interface{}, dest interface{}, label string) error {
	if value == nil {
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for %s", value, label)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal %s: %w", label, err)
	}
	return nil
}
