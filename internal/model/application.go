// Package model defines the applicant, application and link records shared by
// the loader, linker and stores.
package model

import "time"

// Source column names of the FDA purple/orange book export.
const (
	ColApplicant          = "applicant"
	ColBLANDANumber       = "bla_nda_number"
	ColIsBiologic         = "is_biologic"
	ColProprietaryName    = "proprietary_name"
	ColProperName         = "proper_name"
	ColApprovalType       = "approval_type"
	ColRefProperName      = "ref_proper_name"
	ColRefProprietaryName = "ref_proprietary_name"
	ColSupplementNo       = "supplement_no"
	ColLicenseNo          = "license_no"
	ColExclusivityDate    = "exclusivity_date"
	ColIsDeleted          = "is_deleted"
	ColCreatedAt          = "created_at"
	ColUpdatedAt          = "updated_at"
	ColApplicantID        = "applicant_id"
)

// InputColumns lists every column the source file must carry.
var InputColumns = []string{
	ColApplicant,
	ColBLANDANumber,
	ColIsBiologic,
	ColProprietaryName,
	ColProperName,
	ColApprovalType,
	ColRefProperName,
	ColRefProprietaryName,
	ColSupplementNo,
	ColLicenseNo,
	ColExclusivityDate,
	ColIsDeleted,
	ColCreatedAt,
	ColUpdatedAt,
}

// ApplicationColumns is the column order of the application table.
// Values returns row values in the same order.
var ApplicationColumns = []string{
	ColBLANDANumber,
	ColIsBiologic,
	ColProprietaryName,
	ColProperName,
	ColApprovalType,
	ColRefProperName,
	ColRefProprietaryName,
	ColSupplementNo,
	ColLicenseNo,
	ColExclusivityDate,
	ColIsDeleted,
	ColCreatedAt,
	ColUpdatedAt,
	ColApplicantID,
}

// CompanyColumns is the column order of the company table.
var CompanyColumns = []string{"id", ColApplicant}

// LinkColumns is the column order of the link table.
var LinkColumns = []string{"self_id", "parent_id"}

// Applicant is one distinct sponsor name. It is persisted as a company row.
type Applicant struct {
	ID   int64  `json:"id" yaml:"id"`
	Name string `json:"applicant" yaml:"applicant"`
}

// Application is one BLA/NDA record. Nil pointers are NULL cells.
type Application struct {
	BLANDANumber       int64      `json:"bla_nda_number"`
	ApplicantID        int64      `json:"applicant_id"`
	IsBiologic         *bool      `json:"is_biologic,omitempty"`
	ProprietaryName    *string    `json:"proprietary_name,omitempty"`
	ProperName         *string    `json:"proper_name,omitempty"`
	ApprovalType       *string    `json:"approval_type,omitempty"`
	RefProperName      *string    `json:"ref_proper_name,omitempty"`
	RefProprietaryName *string    `json:"ref_proprietary_name,omitempty"`
	SupplementNo       *int64     `json:"supplement_no,omitempty"`
	LicenseNo          *int64     `json:"license_no,omitempty"`
	ExclusivityDate    *time.Time `json:"exclusivity_date,omitempty"`
	IsDeleted          *bool      `json:"is_deleted,omitempty"`
	CreatedAt          *time.Time `json:"created_at,omitempty"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
}

// Values returns the row in ApplicationColumns order. Nil pointers become
// untyped nil so both database/sql and pgx bind them as NULL.
func (a Application) Values() []any {
	return []any{
		a.BLANDANumber,
		nullable(a.IsBiologic),
		nullable(a.ProprietaryName),
		nullable(a.ProperName),
		nullable(a.ApprovalType),
		nullable(a.RefProperName),
		nullable(a.RefProprietaryName),
		nullable(a.SupplementNo),
		nullable(a.LicenseNo),
		nullable(a.ExclusivityDate),
		nullable(a.IsDeleted),
		nullable(a.CreatedAt),
		nullable(a.UpdatedAt),
		a.ApplicantID,
	}
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// Link maps an applicant to the canonical applicant of its name cluster.
type Link struct {
	SelfID   int64 `json:"self_id" yaml:"self_id"`
	ParentID int64 `json:"parent_id" yaml:"parent_id"`
}

// Dataset is everything the loader derives from one input file.
type Dataset struct {
	Applicants   []Applicant
	Applications []Application
	SkippedRows  int
}
