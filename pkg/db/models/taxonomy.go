package models

// Specialization is a therapy focus area a counsellor can advertise.
type Specialization struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"column:name;not null;uniqueIndex"`
}

// TherapyApproach is a treatment modality (CBT, EMDR, ...).
type TherapyApproach struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"column:name;not null;uniqueIndex"`
}

// Language a counsellor can hold sessions in.
type Language struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"column:name;not null;uniqueIndex"`
}

// AgeGroup is a client age bracket a counsellor works with.
type AgeGroup struct {
	ID     uint   `gorm:"primaryKey;autoIncrement"`
	Name   string `gorm:"column:name;not null;uniqueIndex"`
	MinAge int    `gorm:"column:min_age;not null"`
	MaxAge int    `gorm:"column:max_age;not null"`
}
