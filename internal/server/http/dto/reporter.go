package dto

// ReporterRequest names a reporter to authorize.
type ReporterRequest struct {
	Reporter string `json:"reporter"`
}

// ReporterResponse reports whether a principal is an authorized reporter.
type ReporterResponse struct {
	Principal  string `json:"principal"`
	Authorized bool   `json:"authorized"`
}
