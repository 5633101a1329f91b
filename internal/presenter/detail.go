package presenter

import (
	"github.com/aanand-mishra/student-results/internal/types"
)

// Badge and text colours.
const (
	ColorGreen      = "#4CAF50"
	ColorLightGreen = "#8BC34A"
	ColorAmber      = "#FFC107"
	ColorOrange     = "#FF9800"
	ColorRed        = "#F44336"
	ColorGray       = "#757575"
)

// Performance levels, best first.
const (
	LevelExcellent        = "Excellent"
	LevelVeryGood         = "Very Good"
	LevelGood             = "Good"
	LevelSatisfactory     = "Satisfactory"
	LevelPass             = "Pass"
	LevelNeedsImprovement = "Needs Improvement"
)

var gradeColors = map[string]string{
	types.GradeA: ColorGreen,
	types.GradeB: ColorLightGreen,
	types.GradeC: ColorAmber,
	types.GradeD: ColorOrange,
	types.GradeF: ColorRed,
}

// Detail is one record decorated for display.
type Detail struct {
	types.Student

	GradeColor       string
	MarksColor       string
	PerformanceLevel string
	ProgressRatio    float64
}

// Describe derives the display attributes of a single record.
func Describe(s types.Student) Detail {
	return Detail{
		Student:          s,
		GradeColor:       GradeColor(s.Grade),
		MarksColor:       MarksColor(s.Marks),
		PerformanceLevel: PerformanceLevel(s.Marks),
		ProgressRatio:    ProgressRatio(s.Marks),
	}
}

// ProgressPercent is ProgressRatio scaled for a CSS width.
func (d Detail) ProgressPercent() float64 {
	return d.ProgressRatio * 100
}

// MarksText renders the marks without trailing zeros.
func (d Detail) MarksText() string {
	return types.FormatMarks(d.Marks)
}

// GradeColor maps a grade to its badge colour; unknown grades are gray.
func GradeColor(grade string) string {
	if c, ok := gradeColors[grade]; ok {
		return c
	}
	return ColorGray
}

// MarksColor bands marks into green (80+), amber (60+) and red.
func MarksColor(marks float64) string {
	switch {
	case marks >= 80:
		return ColorGreen
	case marks >= 60:
		return ColorAmber
	default:
		return ColorRed
	}
}

// PerformanceLevel bands marks into a human label.
func PerformanceLevel(marks float64) string {
	switch {
	case marks >= 90:
		return LevelExcellent
	case marks >= 80:
		return LevelVeryGood
	case marks >= 70:
		return LevelGood
	case marks >= 60:
		return LevelSatisfactory
	case marks >= 50:
		return LevelPass
	default:
		return LevelNeedsImprovement
	}
}

// ProgressRatio is marks/100, held to [0, 1] for the progress bar.
func ProgressRatio(marks float64) float64 {
	r := marks / 100
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	default:
		return r
	}
}
