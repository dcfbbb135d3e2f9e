package domain

import (
	"strings"
	"time"
)

// Upload file columns. Header names must match exactly.
const (
	ColumnSite               = "NADI_SITE"
	ColumnFullName           = "FULLNAME"
	ColumnIdentityNo         = "IDENTITY_NO"
	ColumnIdentityType       = "IDENTITY_TYPE"
	ColumnEmail              = "EMAIL"
	ColumnPhone              = "PHONE"
	ColumnGender             = "GENDER"
	ColumnRace               = "RACE"
	ColumnNationality        = "NATIONALITY"
	ColumnEntrepreneurStatus = "ENTREPRENEUR_STATUS"
	ColumnMadaniCommunity    = "MADANI_COMMUNITY"
	ColumnPDPADeclare        = "PDPA_DECLARE"
	ColumnAgreeDeclare       = "AGREE_DECLARE"
	ColumnGuardianName       = "GUARDIAN_NAME"
	ColumnAddress1           = "ADDRESS1"
	ColumnAddress2           = "ADDRESS2"
	ColumnDistrict           = "DISTRICT"
	ColumnState              = "STATE"
	ColumnPostcode           = "POSTCODE"
	ColumnCity               = "CITY"
)

// Columns appended to every report row.
const (
	ColumnResult       = "RESULT"
	ColumnReasons      = "REASONS"
	ColumnMembershipID = "MEMBERSHIP_ID"
	ColumnPassword     = "PASSWORD"
)

// Tables touched by the pipeline.
const (
	TableMembers        = "members"
	TableMembersStaging = "members_staging"
	TableUploadBatches  = "upload_batches"
)

// Fixed values written on permanent insert.
const (
	DefaultMembershipStatus = "active"
	RegistrationMethodBulk  = "Bulk Upload"
)

// InputRow maps header column names to the raw values of one data line.
type InputRow map[string]string

// Value returns the trimmed value of column, or "" when absent.
func (r InputRow) Value(column string) string {
	return strings.TrimSpace(r[column])
}

// Has reports whether column carries a non-blank value.
func (r InputRow) Has(column string) bool {
	return r.Value(column) != ""
}

// IdentityType is the identifier of an identity_types reference row.
type IdentityType string

// MemberCandidate is the typed projection of an InputRow used for persistence.
type MemberCandidate struct {
	SiteID             string
	FullName           string
	IdentityNo         string
	IdentityType       IdentityType
	Email              string
	Phone              string
	Gender             string
	Race               string
	Nationality        string
	PDPADeclare        bool
	AgreeDeclare       bool
	MadaniCommunity    bool
	EntrepreneurStatus bool
	GuardianName       string
	Address1           string
	Address2           string
	District           string
	State              string
	Postcode           string
	City               string
}

// NewMemberCandidate projects row onto a candidate. identityNo and email are the
// already-normalized values produced by earlier stages.
func NewMemberCandidate(row InputRow, identityNo, email string) MemberCandidate {
	return MemberCandidate{
		SiteID:             row.Value(ColumnSite),
		FullName:           row.Value(ColumnFullName),
		IdentityNo:         identityNo,
		IdentityType:       IdentityType(row.Value(ColumnIdentityType)),
		Email:              email,
		Phone:              row.Value(ColumnPhone),
		Gender:             row.Value(ColumnGender),
		Race:               row.Value(ColumnRace),
		Nationality:        row.Value(ColumnNationality),
		PDPADeclare:        ParseFlag(row.Value(ColumnPDPADeclare)),
		AgreeDeclare:       ParseFlag(row.Value(ColumnAgreeDeclare)),
		MadaniCommunity:    ParseFlag(row.Value(ColumnMadaniCommunity)),
		EntrepreneurStatus: ParseFlag(row.Value(ColumnEntrepreneurStatus)),
		GuardianName:       row.Value(ColumnGuardianName),
		Address1:           row.Value(ColumnAddress1),
		Address2:           row.Value(ColumnAddress2),
		District:           row.Value(ColumnDistrict),
		State:              row.Value(ColumnState),
		Postcode:           row.Value(ColumnPostcode),
		City:               row.Value(ColumnCity),
	}
}

// Fields returns the column map shared by the staging and permanent member tables.
// Blank optional values become NULL.
func (c MemberCandidate) Fields() map[string]any {
	return map[string]any{
		"site_id":             nullable(c.SiteID),
		"full_name":           c.FullName,
		"identity_no":         c.IdentityNo,
		"identity_type":       nullable(string(c.IdentityType)),
		"email":               nullable(c.Email),
		"mobile_no":           nullable(c.Phone),
		"gender":              nullable(c.Gender),
		"race_id":             nullable(c.Race),
		"nationality_id":      nullable(c.Nationality),
		"pdpa_declare":        c.PDPADeclare,
		"agree_declare":       c.AgreeDeclare,
		"community_status":    c.MadaniCommunity,
		"entrepreneur_status": c.EntrepreneurStatus,
		"guardian_name":       nullable(c.GuardianName),
		"address1":            nullable(c.Address1),
		"address2":            nullable(c.Address2),
		"district_id":         nullable(c.District),
		"state_id":            nullable(c.State),
		"postcode":            nullable(c.Postcode),
		"city":                nullable(c.City),
	}
}

// PersistedMember is the durable record created on full pipeline success.
type PersistedMember struct {
	MembershipID string
	Credential   string
	JoinedAt     time.Time
}

// ParseFlag interprets declaration style columns.
func ParseFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "t", "yes", "y":
		return true
	default:
		return false
	}
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}
