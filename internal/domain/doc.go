// Package domain models the Japan Meteorological Agency (JMA) forecast feed
// and turns it into weekly weather calendars.
//
// # Data Source
//
// Each forecast office publishes one JSON document at
// https://www.jma.go.jp/bosai/forecast/data/forecast/{office}.json. The
// document is a two-element array: the short-range report (today through
// the day after tomorrow) followed by the weekly report.
//
// # Report Layout
//
// A report is a list of time series blocks. A block carries a list of
// timestamps ("timeDefines") and a list of per-area entries; every value
// array of an entry is index-aligned to the block's timeDefines:
//
//	short[0]  weatherCodes, weathers, winds, waves   per region, 3 days
//	short[1]  pops                                    per region, every 6h
//	short[2]  temps                                   per point, daily
//	week[0]   weatherCodes, pops, reliabilities       per region, 7 days
//	week[1]   tempsMin(Upper|Lower), tempsMax(...)    per point, 7 days
//
// "Region" is the coarse forecast area (e.g. 東京地方, code 130010) and
// "point" is the temperature observation point inside it (e.g. 東京, 44132).
//
// # Area Alignment
//
// Blocks never reference each other by key: the i-th entry of every block is
// assumed to describe the same area. [Normalize] checks that assumption
// instead of trusting it. Area counts must match across all five blocks and
// names and codes must match at each index; otherwise the pair is rejected
// with [ErrStructuralMismatch] and nothing is published for that office.
//
// # Missing Values
//
// Values are strings. An empty string means "not forecast yet" (distant
// days of the week report, temperatures already past). The waves array is
// omitted entirely for inland areas, which is different from an empty wave
// value. Missing temperatures fall back to the short-range readings and
// missing precipitation is rendered as "-".
//
// # Time
//
// Every timeDefine carries the fixed +09:00 offset. Timestamps are compared
// as strings when merging and sorting; calendar days are computed in [JST].
//
// # Weather Codes
//
// Weather codes ("100", "101", ...) resolve through the telop table the JMA
// site embeds in its page script (Const.TELOPS). Index 3 of an entry is the
// Japanese description; [DefaultGlyphRules] shortens it to symbols such as
// "☀/☁" for 晴時々曇.
package domain
