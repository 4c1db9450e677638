package domain

import "time"

// Publication announces that a point's calendar was (re)written.
type Publication struct {
	Office         string    `json:"office"`
	PointCode      string    `json:"point_code"`
	PointName      string    `json:"point_name"`
	RegionName     string    `json:"region_name"`
	Keys           []string  `json:"keys"`
	ReportDatetime string    `json:"report_datetime"`
	Events         int       `json:"events"`
	PublishedAt    time.Time `json:"published_at"`
}
