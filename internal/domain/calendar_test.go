package domain

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlyphify(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"晴", "☀"},
		{"晴時々曇", "☀/☁"},
		{"曇後雨", "☁/☂"},
		{"雨か雪", "☃"},
		{"雪か雨", "☃"},
		{"曇一時雨か雪", "☁/☃"},
		{"晴後時々曇", "☀/☁"},
		{"雨で暴風を伴う", "☂で暴風を伴う"},
		{"雨止む", "☂☁"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Glyphify(tt.text, DefaultGlyphRules))
		})
	}
}

func TestGlyphify_OrderMatters(t *testing.T) {
	reordered := []GlyphRule{{"雨", "☂"}, {"雪", "☃"}, {"雨か雪", "☃"}}
	assert.Equal(t, "☂か☃", Glyphify("雨か雪", reordered))
}

func TestTelopTable_Describe(t *testing.T) {
	telops := testTelops()

	text, err := telops.Describe("101")
	require.NoError(t, err)
	assert.Equal(t, "晴時々曇", text)

	for _, code := range []string{"999", "abc", ""} {
		t.Run(code, func(t *testing.T) {
			_, err := telops.Describe(code)
			assert.True(t, errors.Is(err, ErrLookupMiss))
		})
	}

	t.Run("short entry", func(t *testing.T) {
		_, err := TelopTable{100: {"100.svg"}}.Describe("100")
		assert.True(t, errors.Is(err, ErrLookupMiss))
	})
}

func TestEmitter_Emit(t *testing.T) {
	forecast := normalizedFixture(t)
	emitter := NewEmitter(testTelops(), nil)

	doc, err := emitter.Emit(forecast.Areas[0])
	require.NoError(t, err)

	assert.Equal(t, "週間天気予報 (東京)", doc.DisplayName)
	assert.Equal(t, "44132", doc.PointCode)
	assert.Equal(t, "東京地方", doc.RegionName)
	require.Len(t, doc.Events, 4)

	want := []struct{ summary, description string }{
		{"☁/☀", "3℃/9℃ 曇時々晴 (☂10%/-%/30%/20%)"},
		{"☂", "6℃/11℃ 雨 (☂80%)"},
		{"☀/☁", "4℃/14℃ 晴時々曇 (☂20%)"},
		{"☀", "3℃/13℃ 晴 (☂10%)"},
	}
	seen := map[string]bool{}
	for i, ev := range doc.Events {
		assert.Equal(t, want[i].summary, ev.Summary, "event %d", i)
		assert.Equal(t, want[i].description, ev.Description, "event %d", i)
		assert.False(t, seen[ev.UID], "duplicate uid %s", ev.UID)
		seen[ev.UID] = true
	}
	assert.Equal(t, "2021-02-26", doc.Events[0].Date.Format(dateKey))
}

func TestEmitter_OmitsMissingTemperatures(t *testing.T) {
	area := normalizedFixture(t).Areas[1]
	// drop the unknown code so the area can be emitted
	area.Weeks = area.Weeks[:3]

	doc, err := NewEmitter(testTelops(), nil).Emit(area)
	require.NoError(t, err)
	require.Len(t, doc.Events, 3)

	assert.Equal(t, "☁/☃", doc.Events[0].Summary)
	assert.Equal(t, "曇一時雨か雪 (☂20%/40%/60%/50%)", doc.Events[0].Description)
	assert.Equal(t, "7℃/15℃ 曇 (☂-%)", doc.Events[2].Description)
}

func TestEmitter_LookupMiss(t *testing.T) {
	area := normalizedFixture(t).Areas[1]

	doc, err := NewEmitter(testTelops(), nil).Emit(area)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLookupMiss))
	assert.Contains(t, err.Error(), "大島 2021-03-01")
	assert.Empty(t, doc.Events)
}

// A timestamp only the week temperature block publishes yields a week
// record without a weather code; the area fails as a lookup miss.
func TestEmitter_TempsOnlyTimestamp(t *testing.T) {
	pair := loadFixture(t)
	temps := &pair.Week.TimeSeries[weekTempsBlock]
	temps.TimeDefines = append(temps.TimeDefines, "2099-01-01T00:00:00+09:00")
	for i := range temps.Areas {
		a := &temps.Areas[i]
		a.TempsMin = append(a.TempsMin, "1")
		a.TempsMinUpper = append(a.TempsMinUpper, "2")
		a.TempsMinLower = append(a.TempsMinLower, "0")
		a.TempsMax = append(a.TempsMax, "9")
		a.TempsMaxUpper = append(a.TempsMaxUpper, "10")
		a.TempsMaxLower = append(a.TempsMaxLower, "8")
	}

	forecast, err := Normalize(pair)
	require.NoError(t, err)
	rec, ok := forecast.Areas[0].Weeks.Get("2099-01-01T00:00:00+09:00")
	require.True(t, ok)
	assert.Empty(t, rec.WeatherCode)
	assert.Equal(t, "1", rec.TempMin)

	_, err = NewEmitter(testTelops(), nil).Emit(forecast.Areas[0])
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLookupMiss))
	assert.Contains(t, err.Error(), testTokyo+" 2099-01-01")
}

func TestEmitter_Deterministic(t *testing.T) {
	emitter := NewEmitter(testTelops(), nil)

	first, err := emitter.Emit(normalizedFixture(t).Areas[0])
	require.NoError(t, err)
	second, err := emitter.Emit(normalizedFixture(t).Areas[0])
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("emission not deterministic (-first +second):\n%s", diff)
	}
}

func TestEmitter_CustomRules(t *testing.T) {
	rules := []GlyphRule{{"曇", "C"}, {"晴", "S"}, {"時々", "~"}}
	doc, err := NewEmitter(testTelops(), rules).Emit(normalizedFixture(t).Areas[0])
	require.NoError(t, err)
	assert.Equal(t, "C~S", doc.Events[0].Summary)
}
