package rdb

// RunRecord is the RDB persistence model for a configure run.
// Table name: runs
type RunRecord struct {
	ID         string `gorm:"primaryKey;type:text;not null"`
	ConfigHash string `gorm:"type:text;not null"`
	CreatedAt  int64  `gorm:"not null"`
}

func (RunRecord) TableName() string { return "runs" }

// ArtifactRecord is one generated artifact path belonging to a run.
// Table name: artifacts
type ArtifactRecord struct {
	ID    uint   `gorm:"primaryKey;autoIncrement"`
	RunID string `gorm:"type:text;not null;index"` // references Run
	Path  string `gorm:"type:text;not null"`
}

func (ArtifactRecord) TableName() string { return "artifacts" }
