package model

const (
	// DefaultScore is assigned to users without loan history.
	DefaultScore uint32 = 650
	MinScore     uint32 = 300
	MaxScore     uint32 = 850
)

// CreditRecord aggregates a user's loan history.
type CreditRecord struct {
	Principal      Principal
	Score          uint32
	LastUpdated    uint64
	TotalLoans     uint64
	RepaidLoans    uint64
	DefaultedLoans uint64
	TotalBorrowed  uint64
	TotalRepaid    uint64
}

// NewCreditRecord returns a record with the neutral score and no history.
func NewCreditRecord(p Principal, height uint64) *CreditRecord {
	return &CreditRecord{Principal: p, Score: DefaultScore, LastUpdated: height}
}

// Touch advances LastUpdated without ever moving it backwards.
func (r *CreditRecord) Touch(height uint64) {
	if height > r.LastUpdated {
		r.LastUpdated = height
	}
}

// ScoreSource tells where a previewed score came from.
type ScoreSource string

const (
	ScoreSourceRecord  ScoreSource = "record"
	ScoreSourceDefault ScoreSource = "default"
)

// ScorePreview is a score computed without persisting it.
type ScorePreview struct {
	Principal Principal
	Score     uint32
	Source    ScoreSource
}
