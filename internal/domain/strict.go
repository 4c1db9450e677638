package domain

// Strict accessors over the raw feed. The source has no schema; these turn
// every positional assumption the normalizer makes into a checked one.

type block struct {
	name   string
	series TimeSeries
}

func blockAt(r RawReport, index int, name string) (block, error) {
	if index >= len(r.TimeSeries) {
		return block{}, mismatchf("%s: report has %d time series blocks, block %d missing", name, len(r.TimeSeries), index)
	}
	return block{name: name, series: r.TimeSeries[index]}, nil
}

func (b block) entry(i int) (RawAreaEntry, error) {
	if i < 0 || i >= len(b.series.Areas) {
		return RawAreaEntry{}, mismatchf("%s: area %d out of range (%d areas)", b.name, i, len(b.series.Areas))
	}
	return b.series.Areas[i], nil
}

// columns returns the named value arrays of area i. Each must be present and
// cover every timeDefine of the block.
func (b block) columns(i int, fields ...string) ([][]string, error) {
	e, err := b.entry(i)
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(fields))
	for k, f := range fields {
		if !e.Has(f) {
			return nil, mismatchf("%s: area %d (%s) has no %q", b.name, i, e.Area.Code, f)
		}
		values, err := b.aligned(e, i, f)
		if err != nil {
			return nil, err
		}
		out[k] = values
	}
	return out, nil
}

// optionalColumn is columns for a field that some areas omit entirely.
func (b block) optionalColumn(i int, field string) ([]string, bool, error) {
	e, err := b.entry(i)
	if err != nil {
		return nil, false, err
	}
	if !e.Has(field) {
		return nil, false, nil
	}
	values, err := b.aligned(e, i, field)
	if err != nil {
		return nil, false, err
	}
	return values, true, nil
}

func (b block) aligned(e RawAreaEntry, i int, field string) ([]string, error) {
	values, known := e.lookup(field)
	if !known {
		return nil, mismatchf("%s: unknown field %q", b.name, field)
	}
	if len(values) < len(b.series.TimeDefines) {
		return nil, mismatchf("%s: area %d (%s) %q has %d values for %d timeDefines",
			b.name, i, e.Area.Code, field, len(values), len(b.series.TimeDefines))
	}
	return values, nil
}

// expectArea asserts that area i of the block is the given area.
func (b block) expectArea(i int, want AreaRef, from string) error {
	e, err := b.entry(i)
	if err != nil {
		return err
	}
	if e.Area.Name != want.Name {
		return mismatchf("area %d: name %q in %s, %q in %s", i, want.Name, from, e.Area.Name, b.name)
	}
	if e.Area.Code != want.Code {
		return mismatchf("area %d: code %q in %s, %q in %s", i, want.Code, from, e.Area.Code, b.name)
	}
	return nil
}
