package enums

type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusVerified ReportStatus = "verified"
	ReportStatusRejected ReportStatus = "rejected"
)

func (s ReportStatus) IsTerminal() bool {
	return s == ReportStatusVerified || s == ReportStatusRejected
}
