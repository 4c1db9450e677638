package domain

// SixHourRecord is a probability of precipitation for a six hour window.
type SixHourRecord struct {
	Pop string `json:"pop"`
}

// DayRecord is a day-level temperature reading from the short-range report.
type DayRecord struct {
	Temp string `json:"temp"`
}

// ThreeDayRecord is one short-range weather entry. Wave is nil when the area
// publishes no wave forecast at all.
type ThreeDayRecord struct {
	WeatherCode string  `json:"weather_code"`
	Weather     string  `json:"weather"`
	Wind        string  `json:"wind"`
	Wave        *string `json:"wave,omitempty"`
}

// WeekRecord merges the week weather block and the week temperature block.
// Empty strings mean "not forecast yet".
type WeekRecord struct {
	WeatherCode  string `json:"weather_code"`
	Pop          string `json:"pop"`
	Reliability  string `json:"reliability"`
	TempMin      string `json:"temp_min"`
	TempMinUpper string `json:"temp_min_upper"`
	TempMinLower string `json:"temp_min_lower"`
	TempMax      string `json:"temp_max"`
	TempMaxUpper string `json:"temp_max_upper"`
	TempMaxLower string `json:"temp_max_lower"`
}

// NormalizedArea is one forecast area with all four granularities merged.
// The region is the coarse area of the weather blocks; the point is the
// temperature observation point inside it.
type NormalizedArea struct {
	RegionCode string `json:"region_code"`
	RegionName string `json:"region_name"`
	PointCode  string `json:"point_code"`
	PointName  string `json:"point_name"`

	PerSixHours Series[SixHourRecord]  `json:"per_six_hours_records"`
	Days        Series[DayRecord]      `json:"day_records"`
	ThreeDays   Series[ThreeDayRecord] `json:"three_days_records"`
	Weeks       Series[WeekRecord]     `json:"week_records"`
}

// Meta describes the report pair an area list was built from.
type Meta struct {
	PublishingOffice      string `json:"publishing_office"`
	ReportDatetime        string `json:"report_datetime"`
	ReportDatetimeForWeek string `json:"report_datetime_for_week"`
	NumberOfAreas         int    `json:"number_of_areas"`
}

// Forecast is the normalized form of one office's report pair.
type Forecast struct {
	Meta  Meta             `json:"meta"`
	Areas []NormalizedArea `json:"areas"`
}

// Block positions inside each report.
const (
	shortWeatherBlock = 0
	shortPopsBlock    = 1
	shortTempsBlock   = 2
	weekWeatherBlock  = 0
	weekTempsBlock    = 1
)

type reportBlocks struct {
	weather, pops, temps, weekWeather, weekTemps block
}

func (r reportBlocks) all() []block {
	return []block{r.weather, r.pops, r.temps, r.weekWeather, r.weekTemps}
}

// Normalize merges a report pair into one record per area. Areas are matched
// across blocks by position only, so every block must list the same number of
// areas and agree on each area's name and code. Any disagreement fails the
// whole pair with ErrStructuralMismatch.
func Normalize(pair ReportPair) (Forecast, error) {
	if pair.Short.PublishingOffice != pair.Week.PublishingOffice {
		return Forecast{}, mismatchf("publishing office %q vs %q", pair.Short.PublishingOffice, pair.Week.PublishingOffice)
	}

	blocks, err := locateBlocks(pair)
	if err != nil {
		return Forecast{}, err
	}

	n := len(blocks.weather.series.Areas)
	for _, b := range blocks.all() {
		if len(b.series.Areas) != n {
			return Forecast{}, mismatchf("%s has %d areas, %s has %d", b.name, len(b.series.Areas), blocks.weather.name, n)
		}
	}

	areas := make([]NormalizedArea, 0, n)
	for i := range n {
		area, err := normalizeArea(blocks, i)
		if err != nil {
			return Forecast{}, err
		}
		areas = append(areas, area)
	}

	return Forecast{
		Meta: Meta{
			PublishingOffice:      pair.Short.PublishingOffice,
			ReportDatetime:        pair.Short.ReportDatetime,
			ReportDatetimeForWeek: pair.Week.ReportDatetime,
			NumberOfAreas:         n,
		},
		Areas: areas,
	}, nil
}

func locateBlocks(pair ReportPair) (reportBlocks, error) {
	var (
		r   reportBlocks
		err error
	)
	if r.weather, err = blockAt(pair.Short, shortWeatherBlock, "short weather"); err != nil {
		return r, err
	}
	if r.pops, err = blockAt(pair.Short, shortPopsBlock, "short pops"); err != nil {
		return r, err
	}
	if r.temps, err = blockAt(pair.Short, shortTempsBlock, "short temps"); err != nil {
		return r, err
	}
	if r.weekWeather, err = blockAt(pair.Week, weekWeatherBlock, "week weather"); err != nil {
		return r, err
	}
	if r.weekTemps, err = blockAt(pair.Week, weekTempsBlock, "week temps"); err != nil {
		return r, err
	}
	return r, nil
}

func normalizeArea(b reportBlocks, i int) (NormalizedArea, error) {
	region := b.weather.series.Areas[i].Area
	point := b.temps.series.Areas[i].Area

	for _, check := range []struct {
		blk  block
		want AreaRef
		from string
	}{
		{b.pops, region, b.weather.name},
		{b.weekWeather, region, b.weather.name},
		{b.weekTemps, point, b.temps.name},
	} {
		if err := check.blk.expectArea(i, check.want, check.from); err != nil {
			return NormalizedArea{}, err
		}
	}

	threeDays, err := scatterThreeDays(b.weather, i)
	if err != nil {
		return NormalizedArea{}, err
	}
	sixHours, err := scatterSixHours(b.pops, i)
	if err != nil {
		return NormalizedArea{}, err
	}
	days, err := scatterDays(b.temps, i)
	if err != nil {
		return NormalizedArea{}, err
	}
	weeks, err := scatterWeeks(b.weekWeather, b.weekTemps, i)
	if err != nil {
		return NormalizedArea{}, err
	}

	return NormalizedArea{
		RegionCode:  region.Code,
		RegionName:  region.Name,
		PointCode:   point.Code,
		PointName:   point.Name,
		PerSixHours: sixHours,
		Days:        days,
		ThreeDays:   threeDays,
		Weeks:       weeks,
	}, nil
}

func scatterThreeDays(b block, i int) (Series[ThreeDayRecord], error) {
	cols, err := b.columns(i, "weatherCodes", "weathers", "winds")
	if err != nil {
		return nil, err
	}
	// waves is omitted for inland areas.
	waves, hasWaves, err := b.optionalColumn(i, "waves")
	if err != nil {
		return nil, err
	}

	sb := newSeriesBuilder[ThreeDayRecord]()
	for j, t := range b.series.TimeDefines {
		r := sb.at(t)
		r.WeatherCode = cols[0][j]
		r.Weather = cols[1][j]
		r.Wind = cols[2][j]
		if hasWaves {
			wave := waves[j]
			r.Wave = &wave
		}
	}
	return sb.build(), nil
}

func scatterSixHours(b block, i int) (Series[SixHourRecord], error) {
	cols, err := b.columns(i, "pops")
	if err != nil {
		return nil, err
	}
	sb := newSeriesBuilder[SixHourRecord]()
	for j, t := range b.series.TimeDefines {
		sb.at(t).Pop = cols[0][j]
	}
	return sb.build(), nil
}

func scatterDays(b block, i int) (Series[DayRecord], error) {
	cols, err := b.columns(i, "temps")
	if err != nil {
		return nil, err
	}
	sb := newSeriesBuilder[DayRecord]()
	for j, t := range b.series.TimeDefines {
		sb.at(t).Temp = cols[0][j]
	}
	return sb.build(), nil
}

func scatterWeeks(weather, temps block, i int) (Series[WeekRecord], error) {
	wcols, err := weather.columns(i, "weatherCodes", "pops", "reliabilities")
	if err != nil {
		return nil, err
	}
	tcols, err := temps.columns(i, "tempsMin", "tempsMinUpper", "tempsMinLower", "tempsMax", "tempsMaxUpper", "tempsMaxLower")
	if err != nil {
		return nil, err
	}

	sb := newSeriesBuilder[WeekRecord]()
	for j, t := range weather.series.TimeDefines {
		r := sb.at(t)
		r.WeatherCode = wcols[0][j]
		r.Pop = wcols[1][j]
		r.Reliability = wcols[2][j]
	}
	for j, t := range temps.series.TimeDefines {
		r := sb.at(t)
		r.TempMin = tcols[0][j]
		r.TempMinUpper = tcols[1][j]
		r.TempMinLower = tcols[2][j]
		r.TempMax = tcols[3][j]
		r.TempMaxUpper = tcols[4][j]
		r.TempMaxLower = tcols[5][j]
	}
	return sb.build(), nil
}
