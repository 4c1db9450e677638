package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalizedFixture(t *testing.T) Forecast {
	t.Helper()
	forecast, err := Normalize(loadFixture(t))
	require.NoError(t, err)
	return forecast
}

func TestRollupPops(t *testing.T) {
	area := normalizedFixture(t).Areas[0]

	rollups, err := RollupPops(area.PerSixHours)
	require.NoError(t, err)
	require.Len(t, rollups, 2)

	tests := []struct {
		day  string
		want string
	}{
		{"2021-02-25", "-%/-%/-%/0%"},
		{"2021-02-26", "10%/-%/30%/20%"},
	}
	for _, tt := range tests {
		t.Run(tt.day, func(t *testing.T) {
			r, ok := rollups[tt.day]
			require.True(t, ok)
			assert.Equal(t, tt.want, r.String())
			assert.Equal(t, tt.day, r.Day.Format(dateKey))
			assert.Equal(t, JST, r.Day.Location())
		})
	}
}

func TestRollupPops_ConvertsToLocalDay(t *testing.T) {
	s := Series[SixHourRecord]{
		{Time: "2021-02-25T15:00:00Z", Record: SixHourRecord{Pop: "40"}},
	}
	rollups, err := RollupPops(s)
	require.NoError(t, err)

	r, ok := rollups["2021-02-26"]
	require.True(t, ok, "15:00 UTC is midnight the next day in JST")
	assert.Equal(t, "40%/-%/-%/-%", r.String())
}

func TestRollupPops_BadTimeDefine(t *testing.T) {
	_, err := RollupPops(Series[SixHourRecord]{{Time: "tomorrow", Record: SixHourRecord{Pop: "10"}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStructuralMismatch))
}

func TestBuildOutlook(t *testing.T) {
	forecast := normalizedFixture(t)

	t.Run("tokyo", func(t *testing.T) {
		days, err := BuildOutlook(forecast.Areas[0])
		require.NoError(t, err)
		require.Len(t, days, 4)

		first := days[0]
		assert.True(t, first.Date.Equal(time.Date(2021, 2, 26, 0, 0, 0, 0, JST)))
		assert.Equal(t, "201", first.WeatherCode)
		assert.Equal(t, intPtr(3), first.TempMin, "min of day readings 5, 9, 3")
		assert.Equal(t, intPtr(9), first.TempMax)
		assert.Equal(t, "10%/-%/30%/20%", first.Precipitation, "rollup replaces empty week pop")

		second := days[1]
		assert.Equal(t, intPtr(6), second.TempMin)
		assert.Equal(t, intPtr(11), second.TempMax)
		assert.Equal(t, "80%", second.Precipitation)
	})

	t.Run("no short range temperatures", func(t *testing.T) {
		days, err := BuildOutlook(forecast.Areas[1])
		require.NoError(t, err)
		require.Len(t, days, 4)

		assert.Nil(t, days[0].TempMin)
		assert.Nil(t, days[0].TempMax)
		assert.Equal(t, "20%/40%/60%/50%", days[0].Precipitation)
		assert.Equal(t, "-%", days[2].Precipitation, "empty week pop without rollup")
	})

	t.Run("dates ascending", func(t *testing.T) {
		days, err := BuildOutlook(forecast.Areas[0])
		require.NoError(t, err)
		for i := 1; i < len(days); i++ {
			assert.True(t, days[i-1].Date.Before(days[i].Date))
		}
	})
}

func TestParseTemp(t *testing.T) {
	tests := []struct {
		in   string
		want *int
	}{
		{"", nil},
		{"  ", nil},
		{"12", intPtr(12)},
		{"-3", intPtr(-3)},
		{"2.6", intPtr(3)},
		{"--", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseTemp(tt.in))
		})
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "-%", percent(nil))
	assert.Equal(t, "-%", percent(strPtr("")))
	assert.Equal(t, "0%", percent(strPtr("0")))
}
