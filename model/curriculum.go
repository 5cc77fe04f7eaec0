package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	// TotalWeeks is the length of the curriculum
	TotalWeeks = 36
	// WeeksPerBloc is the number of consecutive weeks grouped in one bloc
	WeeksPerBloc = 12
	// TotalBlocs is the number of blocs in the curriculum
	TotalBlocs = TotalWeeks / WeeksPerBloc
)

// BlocNames are the display names of the three blocs, indexed by bloc number - 1
var BlocNames = [TotalBlocs]string{
	"Artistic Inclination",
	"Auditory Talents",
	"Sensory Intelligence",
}

// ValidWeek reports whether week is inside the curriculum
func ValidWeek(week int) bool {
	return week >= 1 && week <= TotalWeeks
}

// ValidBloc reports whether bloc is 1, 2 or 3
func ValidBloc(bloc int) bool {
	return bloc >= 1 && bloc <= TotalBlocs
}

// BlocForWeek maps a week to its bloc: 1-12 → 1, 13-24 → 2, everything after → 3
func BlocForWeek(week int) int {
	switch {
	case week <= WeeksPerBloc:
		return 1
	case week <= 2*WeeksPerBloc:
		return 2
	default:
		return 3
	}
}

// BlocName returns the display name for a bloc number
func BlocName(bloc int) string {
	if !ValidBloc(bloc) {
		return ""
	}
	return BlocNames[bloc-1]
}

// WeekActivity is one static curriculum entry
type WeekActivity struct {
	Week             int                         `gorm:"primaryKey;autoIncrement:false" json:"week"`
	BlocNumber       int                         `gorm:"not null;index" json:"bloc_number"`
	SubTheme         string                      `gorm:"not null" json:"sub_theme"`
	ActivityName     string                      `gorm:"not null" json:"activity_name"`
	LearningOutcome  string                      `gorm:"not null" json:"learning_outcome"`
	Description      string                      `gorm:"type:text;not null" json:"description"`
	Digitization     string                      `gorm:"type:text;not null" json:"digitization"`
	TalentIndicators datatypes.JSONSlice[string] `gorm:"type:jsonb;not null" json:"talent_indicators"`
	CreatedAt        time.Time                   `json:"-"`
	UpdatedAt        time.Time                   `json:"-"`
}

// TableName specifies the table name for WeekActivity
func (WeekActivity) TableName() string {
	return "week_activities"
}
