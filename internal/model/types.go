// Package model defines shared data structures.
package model

import "time"

// Config defines catalog and runtime settings resolved from flags and the config file.
type Config struct {
	Source   string
	URL      string
	DBPath   string
	Timeout  time.Duration
	Retries  int
	LogLevel string
	LogFile  string
}

// ServerConfig defines settings for the mock catalog server.
type ServerConfig struct {
	Addr   string
	DBPath string
}

// Course is a single catalog entry. Courses are immutable once loaded.
type Course struct {
	ID       int64
	Name     string
	Required bool
	Credit   int
}

// Kind reports the course type label shown to students.
func (c Course) Kind() string {
	if c.Required {
		return "Compulsory"
	}
	return "Elective"
}

// CourseDTO is the wire representation served by catalog endpoints.
type CourseDTO struct {
	CourseID   int64  `json:"courseId" toml:"courseId"`
	CourseName string `json:"courseName" toml:"courseName"`
	Required   bool   `json:"required" toml:"required"`
	Credit     int    `json:"credit" toml:"credit"`
}

// ToCourse converts the wire form into a Course.
func (d CourseDTO) ToCourse() Course {
	return Course{
		ID:       d.CourseID,
		Name:     d.CourseName,
		Required: d.Required,
		Credit:   d.Credit,
	}
}

// FromCourse converts a Course into its wire form.
func FromCourse(c Course) CourseDTO {
	return CourseDTO{
		CourseID:   c.ID,
		CourseName: c.Name,
		Required:   c.Required,
		Credit:     c.Credit,
	}
}

// ToCourses converts a slice of DTOs, preserving order.
func ToCourses(dtos []CourseDTO) []Course {
	out := make([]Course, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.ToCourse())
	}
	return out
}

// FromCourses converts a slice of courses into DTOs, preserving order.
func FromCourses(courses []Course) []CourseDTO {
	out := make([]CourseDTO, 0, len(courses))
	for _, c := range courses {
		out = append(out, FromCourse(c))
	}
	return out
}

// TotalCredits sums course credits.
func TotalCredits(courses []Course) int {
	total := 0
	for _, c := range courses {
		total += c.Credit
	}
	return total
}
