package enums

import "fmt"

// CertificationStatus tracks verification of a farmer certification document.
type CertificationStatus string

const (
	CertificationStatusSubmitted CertificationStatus = "submitted"
	CertificationStatusVerified  CertificationStatus = "verified"
	CertificationStatusRejected  CertificationStatus = "rejected"
	CertificationStatusExpired   CertificationStatus = "expired"
)

var validCertificationStatuses = []CertificationStatus{
	CertificationStatusSubmitted,
	CertificationStatusVerified,
	CertificationStatusRejected,
	CertificationStatusExpired,
}

// String implements fmt.Stringer.
func (s CertificationStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known CertificationStatus.
func (s CertificationStatus) IsValid() bool {
	for _, candidate := range validCertificationStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCertificationStatus converts raw input into a CertificationStatus.
func ParseCertificationStatus(value string) (CertificationStatus, error) {
	for _, candidate := range validCertificationStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid certification status %q", value)
}

// QualityGrade is the coarse grade a quality report assigns to a listing.
type QualityGrade string

const (
	QualityGradeA QualityGrade = "A"
	QualityGradeB QualityGrade = "B"
	QualityGradeC QualityGrade = "C"
)

var validQualityGrades = []QualityGrade{
	QualityGradeA,
	QualityGradeB,
	QualityGradeC,
}

// String implements fmt.Stringer.
func (g QualityGrade) String() string {
	return string(g)
}

// IsValid reports whether the value is a known QualityGrade.
func (g QualityGrade) IsValid() bool {
	for _, candidate := range validQualityGrades {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseQualityGrade converts raw input into a QualityGrade.
func ParseQualityGrade(value string) (QualityGrade, error) {
	for _, candidate := range validQualityGrades {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quality grade %q", value)
}
