// Command inspect works on saved JMA forecast documents without running the
// service. It can download a document, print its normalized form, render its
// calendars, or run integrity checks over it.
//
// Usage:
//
//	go run ./cmd/inspect -mode fetch -office 130000 -out internal/domain/testdata
//	go run ./cmd/inspect -mode normalize -in tokyo.20210225170000.json
//	go run ./cmd/inspect -mode ical -in tokyo.20210225170000.json -telops telops.yaml -point 東京
//	go run ./cmd/inspect -mode validate -in tokyo.20210225170000.json -telops telops.yaml
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/weathercal/internal/adapter/ical"
	"github.com/couchcryptid/weathercal/internal/adapter/jma"
	"github.com/couchcryptid/weathercal/internal/adapter/telops"
	"github.com/couchcryptid/weathercal/internal/config"
	"github.com/couchcryptid/weathercal/internal/domain"
	"github.com/couchcryptid/weathercal/internal/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	mode := flag.String("mode", "validate", "fetch, normalize, ical or validate")
	in := flag.String("in", "", "path to a saved forecast document")
	telopsPath := flag.String("telops", "", "path to a weather code table (YAML)")
	office := flag.String("office", "", "office code to download (fetch mode)")
	out := flag.String("out", ".", "output directory (fetch mode)")
	point := flag.String("point", "", "only render this point (ical mode)")
	flag.Parse()

	var code int
	switch *mode {
	case "fetch":
		if *office == "" {
			flag.Usage()
			os.Exit(1)
		}
		code = runFetch(*office, *out)
	case "normalize":
		if *in == "" {
			flag.Usage()
			os.Exit(1)
		}
		code = runNormalize(*in)
	case "ical", "validate":
		if *in == "" || *telopsPath == "" {
			flag.Usage()
			os.Exit(1)
		}
		if *mode == "ical" {
			code = runICal(*in, *telopsPath, *point)
		} else {
			code = runValidate(*in, *telopsPath)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		code = 1
	}
	os.Exit(code)
}

// runFetch downloads one office document and saves it as
// {office}.{report datetime}.json so fixtures sort by publication.
func runFetch(office, dir string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		return 1
	}
	logger := sharedobs.NewLogger("info", "text")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := jma.NewClient(cfg, clockwork.NewRealClock(), observability.NewMetrics(), logger)
	pair, err := client.FetchReportPair(ctx, office)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: fetch %s: %v\n", office, err)
		return 1
	}

	stamp := office
	if t, err := time.Parse(time.RFC3339, pair.Short.ReportDatetime); err == nil {
		stamp = office + "." + t.In(domain.JST).Format("20060102150405")
	}
	data, err := json.MarshalIndent(pair, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: marshal: %v\n", err)
		return 1
	}
	path := filepath.Join(dir, stamp+".json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: write %s: %v\n", path, err)
		return 1
	}
	fmt.Println(path)
	return 0
}

func runNormalize(in string) int {
	forecast, err := loadForecast(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(forecast); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: encode: %v\n", err)
		return 1
	}
	return 0
}

func runICal(in, telopsPath, point string) int {
	forecast, err := loadForecast(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	table, err := telops.NewFileStore(telopsPath).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load telops: %v\n", err)
		return 1
	}
	stamp, err := time.Parse(time.RFC3339, forecast.Meta.ReportDatetime)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: report datetime: %v\n", err)
		return 1
	}

	emitter := domain.NewEmitter(table, nil)
	for _, area := range forecast.Areas {
		if point != "" && area.PointName != point {
			continue
		}
		doc, err := emitter.Emit(area)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skip %s: %v\n", area.PointName, err)
			continue
		}
		if _, err := os.Stdout.Write(ical.Encode(doc, stamp)); err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: write: %v\n", err)
			return 1
		}
	}
	return 0
}

func loadForecast(path string) (domain.Forecast, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Forecast{}, fmt.Errorf("read %s: %w", path, err)
	}
	pair, err := domain.ParseReportPair(data)
	if err != nil {
		return domain.Forecast{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return domain.Normalize(pair)
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func runValidate(in, telopsPath string) int {
	fmt.Println("=== Forecast Integrity Validation ===")
	fmt.Println()

	data, err := os.ReadFile(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read %s: %v\n", in, err)
		return 1
	}
	pair, err := domain.ParseReportPair(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse %s: %v\n", in, err)
		return 1
	}
	table, err := telops.NewFileStore(telopsPath).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load telops: %v\n", err)
		return 1
	}

	structure, forecast := validateStructure(pair)
	phases := []*phase{
		structure,
		validateTelopCoverage(forecast, table),
		validateCalendars(forecast, table),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Office %s: %d areas, %d weather codes known\n",
		forecast.Meta.PublishingOffice, len(forecast.Areas), len(table))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phases ──

func validateStructure(pair domain.ReportPair) (*phase, domain.Forecast) {
	p := &phase{name: "Report structure"}
	forecast, err := domain.Normalize(pair)
	if err != nil {
		p.errorf("%v", err)
		return p, forecast
	}
	for _, a := range forecast.Areas {
		if len(a.Weeks) != 7 {
			p.errorf("%s: %d week records, want 7", a.PointName, len(a.Weeks))
		}
		if len(a.ThreeDays) == 0 {
			p.errorf("%s: no short-range weather", a.PointName)
		}
	}
	return p, forecast
}

func validateTelopCoverage(forecast domain.Forecast, table domain.TelopTable) *phase {
	p := &phase{name: "Weather code coverage"}
	seen := make(map[string]bool)
	check := func(where, code string) {
		if code == "" || seen[code] {
			return
		}
		seen[code] = true
		if _, err := table.Describe(code); err != nil {
			p.errorf("%s: %v", where, err)
		}
	}
	for _, a := range forecast.Areas {
		for _, r := range a.ThreeDays {
			check(a.RegionName+" "+r.Time, r.Record.WeatherCode)
		}
		for _, r := range a.Weeks {
			check(a.PointName+" "+r.Time, r.Record.WeatherCode)
		}
	}
	return p
}

func validateCalendars(forecast domain.Forecast, table domain.TelopTable) *phase {
	p := &phase{name: "Calendar emission"}
	emitter := domain.NewEmitter(table, nil)
	uids := make(map[string]string)
	for _, a := range forecast.Areas {
		doc, err := emitter.Emit(a)
		if err != nil {
			p.errorf("%s: %v", a.PointName, err)
			continue
		}
		for i, ev := range doc.Events {
			if prev, ok := uids[ev.UID]; ok {
				p.errorf("%s: uid %s already used by %s", a.PointName, ev.UID, prev)
			}
			uids[ev.UID] = a.PointName
			if i > 0 && !ev.Date.After(doc.Events[i-1].Date) {
				p.errorf("%s: event %d not after event %d", a.PointName, i, i-1)
			}
			if strings.TrimSpace(ev.Summary) == "" {
				p.errorf("%s: empty summary on %s", a.PointName, ev.Date.Format(time.DateOnly))
			}
		}
	}
	return p
}
