package domain

import (
	"encoding/json"
	"fmt"

	"github.com/perimeterx/marshmallow"
)

// AreaRef identifies an area inside a time series block.
type AreaRef struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// RawAreaEntry is one per-area element of a time series block. Which value
// arrays are populated depends on the block; every array is index-aligned to
// the block's timeDefines.
type RawAreaEntry struct {
	Area          AreaRef  `json:"area"`
	WeatherCodes  []string `json:"weatherCodes,omitempty"`
	Weathers      []string `json:"weathers,omitempty"`
	Winds         []string `json:"winds,omitempty"`
	Waves         []string `json:"waves,omitempty"`
	Pops          []string `json:"pops,omitempty"`
	Reliabilities []string `json:"reliabilities,omitempty"`
	Temps         []string `json:"temps,omitempty"`
	TempsMin      []string `json:"tempsMin,omitempty"`
	TempsMinUpper []string `json:"tempsMinUpper,omitempty"`
	TempsMinLower []string `json:"tempsMinLower,omitempty"`
	TempsMax      []string `json:"tempsMax,omitempty"`
	TempsMaxUpper []string `json:"tempsMaxUpper,omitempty"`
	TempsMaxLower []string `json:"tempsMaxLower,omitempty"`

	// present holds every key found in the source object, so an omitted
	// array can be told apart from an empty one.
	present map[string]any
}

// UnmarshalJSON decodes the entry and records which keys were present.
func (e *RawAreaEntry) UnmarshalJSON(data []byte) error {
	type plain RawAreaEntry
	var p plain
	fields, err := marshmallow.Unmarshal(data, &p)
	if err != nil {
		return fmt.Errorf("decode area entry: %w", err)
	}
	*e = RawAreaEntry(p)
	e.present = fields
	return nil
}

// Has reports whether the named JSON field exists on the entry.
func (e RawAreaEntry) Has(field string) bool {
	if e.present != nil {
		v, ok := e.present[field]
		return ok && v != nil
	}
	values, known := e.lookup(field)
	return known && values != nil
}

func (e RawAreaEntry) lookup(field string) ([]string, bool) {
	switch field {
	case "weatherCodes":
		return e.WeatherCodes, true
	case "weathers":
		return e.Weathers, true
	case "winds":
		return e.Winds, true
	case "waves":
		return e.Waves, true
	case "pops":
		return e.Pops, true
	case "reliabilities":
		return e.Reliabilities, true
	case "temps":
		return e.Temps, true
	case "tempsMin":
		return e.TempsMin, true
	case "tempsMinUpper":
		return e.TempsMinUpper, true
	case "tempsMinLower":
		return e.TempsMinLower, true
	case "tempsMax":
		return e.TempsMax, true
	case "tempsMaxUpper":
		return e.TempsMaxUpper, true
	case "tempsMaxLower":
		return e.TempsMaxLower, true
	default:
		return nil, false
	}
}

// TimeSeries is one block of a report: a list of timestamps and the per-area
// value arrays aligned to them.
type TimeSeries struct {
	TimeDefines []string       `json:"timeDefines"`
	Areas       []RawAreaEntry `json:"areas"`
}

// RawReport is one element of the forecast payload.
type RawReport struct {
	PublishingOffice string       `json:"publishingOffice"`
	ReportDatetime   string       `json:"reportDatetime"`
	TimeSeries       []TimeSeries `json:"timeSeries"`
}

// ReportPair is the decoded forecast payload: the short-range (three day)
// report followed by the weekly report.
type ReportPair struct {
	Short RawReport
	Week  RawReport
}

// UnmarshalJSON accepts the two-element array published per office.
func (p *ReportPair) UnmarshalJSON(data []byte) error {
	var reports []RawReport
	if err := json.Unmarshal(data, &reports); err != nil {
		return err
	}
	if len(reports) != 2 {
		return mismatchf("expected 2 reports, got %d", len(reports))
	}
	p.Short, p.Week = reports[0], reports[1]
	return nil
}

// MarshalJSON writes the pair back in its wire shape.
func (p ReportPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([]RawReport{p.Short, p.Week})
}

// ParseReportPair decodes a raw forecast payload.
func ParseReportPair(data []byte) (ReportPair, error) {
	var pair ReportPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return ReportPair{}, fmt.Errorf("parse report pair: %w", err)
	}
	return pair, nil
}
