package domain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testOffice   = "気象庁"
	testTokyo    = "東京"
	testOshima   = "大島"
	testTokyoDay = "2021-02-26T00:00:00+09:00"
)

func loadFixture(t *testing.T) ReportPair {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "forecast_130000.json"))
	require.NoError(t, err)
	pair, err := ParseReportPair(data)
	require.NoError(t, err)
	return pair
}

func testTelops() TelopTable {
	return TelopTable{
		100: {"100.svg", "500.svg", "100", "晴", "CLEAR"},
		101: {"101.svg", "501.svg", "100", "晴時々曇", "PARTLY CLOUDY"},
		200: {"200.svg", "200.svg", "200", "曇", "CLOUDY"},
		201: {"201.svg", "601.svg", "200", "曇時々晴", "MOSTLY CLOUDY"},
		206: {"206.svg", "206.svg", "200", "曇一時雨か雪", "CLOUDY, OCCASIONAL RAIN OR SNOW"},
		300: {"300.svg", "300.svg", "300", "雨", "RAIN"},
	}
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }
