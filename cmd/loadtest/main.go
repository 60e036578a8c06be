package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/cookiejar"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	idempotencyHeader = "Idempotency-Key"
	defaultQuantity   = 1
)

// ID товаров из каталога по умолчанию.
var seededProductIDs = []string{"1", "2", "3", "4", "5"}

type loadMode string

const (
	modeAdd      loadMode = "add"
	modeAddView  loadMode = "add-view"
	modeAddClear loadMode = "add-clear"
)

type config struct {
	baseURL     string
	total       int
	totalSet    bool
	duration    time.Duration
	concurrency int
	timeout     time.Duration
	mode        loadMode
	items       int
	quantity    int
	outputPath  string
}

type latencySummary struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

type operationReport struct {
	Calls     int64            `json:"calls"`
	Success   int64            `json:"success"`
	Failed    int64            `json:"failed"`
	ErrorRate float64          `json:"error_rate"`
	Statuses  map[string]int64 `json:"statuses"`
	LatencyMs latencySummary   `json:"latency_ms"`
}

type report struct {
	StartedAt         time.Time                  `json:"started_at"`
	DurationSeconds   float64                    `json:"duration_seconds"`
	TotalScenarios    int64                      `json:"total_scenarios"`
	SuccessScenarios  int64                      `json:"success_scenarios"`
	FailedScenarios   int64                      `json:"failed_scenarios"`
	ErrorRate         float64                    `json:"error_rate"`
	RPS               float64                    `json:"rps"`
	ScenarioLatencyMs latencySummary             `json:"scenario_latency_ms"`
	Operations        map[string]operationReport `json:"operations"`
}

type operationStats struct {
	calls     int64
	success   int64
	failed    int64
	statuses  map[string]int64
	latencies []float64
}

type collector struct {
	mu         sync.Mutex
	operations map[string]*operationStats
}

func newCollector() *collector {
	return &collector{
		operations: make(map[string]*operationStats),
	}
}

func (c *collector) record(operation string, latency time.Duration, status int, callErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats, ok := c.operations[operation]
	if !ok {
		stats = &operationStats{
			statuses: make(map[string]int64),
		}
		c.operations[operation] = stats
	}

	stats.calls++
	if callErr == nil && status >= 200 && status < 300 {
		stats.success++
	} else {
		stats.failed++
	}
	stats.statuses[statusLabel(status, callErr)]++
	stats.latencies = append(stats.latencies, float64(latency.Microseconds())/1000.0)
}

func statusLabel(status int, callErr error) string {
	if callErr != nil {
		return "transport_error"
	}
	return fmt.Sprintf("%d", status)
}

func (c *collector) buildReport(startedAt time.Time, duration time.Duration) report {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := report{
		StartedAt:       startedAt.UTC(),
		DurationSeconds: duration.Seconds(),
		Operations:      make(map[string]operationReport, len(c.operations)),
	}

	scenarioStats := c.operations["scenario"]
	if scenarioStats != nil {
		result.TotalScenarios = scenarioStats.calls
		result.SuccessScenarios = scenarioStats.success
		result.FailedScenarios = scenarioStats.failed
		result.ErrorRate = ratio(scenarioStats.failed, scenarioStats.calls)
		result.ScenarioLatencyMs = buildLatencySummary(scenarioStats.latencies)
	}
	if duration > 0 {
		result.RPS = float64(result.TotalScenarios) / duration.Seconds()
	}

	for name, stats := range c.operations {
		statusesCopy := make(map[string]int64, len(stats.statuses))
		for status, count := range stats.statuses {
			statusesCopy[status] = count
		}
		result.Operations[name] = operationReport{
			Calls:     stats.calls,
			Success:   stats.success,
			Failed:    stats.failed,
			ErrorRate: ratio(stats.failed, stats.calls),
			Statuses:  statusesCopy,
			LatencyMs: buildLatencySummary(stats.latencies),
		}
	}

	return result
}

func parseConfig() (config, error) {
	var cfg config
	var modeValue string
	var timeoutValue string
	var durationValue string

	flag.StringVar(&cfg.baseURL, "addr", "http://localhost:8080", "cart HTTP API base URL")
	flag.IntVar(&cfg.total, "total", 400, "total scenarios to execute in count mode; in duration mode only used when explicitly set")
	flag.StringVar(&durationValue, "duration", "0s", "optional time-based run duration (e.g. 10m, 15m)")
	flag.IntVar(&cfg.concurrency, "concurrency", 40, "number of concurrent workers")
	flag.StringVar(&timeoutValue, "timeout", "5s", "per-request timeout")
	flag.StringVar(&modeValue, "mode", string(modeAdd), "load mode: add | add-view | add-clear")
	flag.IntVar(&cfg.items, "items", 2, "products to add per scenario (1..5)")
	flag.IntVar(&cfg.quantity, "quantity", defaultQuantity, "quantity per added product")
	flag.StringVar(&cfg.outputPath, "output", "", "optional JSON report output file path")
	flag.Parse()

	timeout, err := time.ParseDuration(strings.TrimSpace(timeoutValue))
	if err != nil {
		return cfg, fmt.Errorf("parse timeout: %w", err)
	}
	cfg.timeout = timeout

	duration, err := time.ParseDuration(strings.TrimSpace(durationValue))
	if err != nil {
		return cfg, fmt.Errorf("parse duration: %w", err)
	}
	cfg.duration = duration

	flag.CommandLine.Visit(func(f *flag.Flag) {
		if f.Name == "total" {
			cfg.totalSet = true
		}
	})

	mode, err := parseMode(modeValue)
	if err != nil {
		return cfg, err
	}
	cfg.mode = mode

	if cfg.duration < 0 {
		return cfg, errors.New("duration must be >= 0")
	}
	if cfg.duration == 0 && cfg.total <= 0 {
		return cfg, errors.New("total must be > 0 when duration is not set")
	}
	if cfg.duration > 0 && cfg.totalSet && cfg.total <= 0 {
		return cfg, errors.New("total must be > 0 when explicitly set with duration")
	}
	if cfg.concurrency <= 0 {
		return cfg, errors.New("concurrency must be > 0")
	}
	if cfg.timeout <= 0 {
		return cfg, errors.New("timeout must be > 0")
	}
	if cfg.items <= 0 || cfg.items > len(seededProductIDs) {
		return cfg, fmt.Errorf("items must be between 1 and %d", len(seededProductIDs))
	}
	if cfg.quantity <= 0 || cfg.quantity > 99 {
		return cfg, errors.New("quantity must be between 1 and 99")
	}
	if !strings.HasPrefix(cfg.baseURL, "http://") && !strings.HasPrefix(cfg.baseURL, "https://") {
		return cfg, fmt.Errorf("addr must be an http(s) URL: %s", cfg.baseURL)
	}

	return cfg, nil
}

func parseMode(value string) (loadMode, error) {
	switch loadMode(strings.TrimSpace(value)) {
	case modeAdd:
		return modeAdd, nil
	case modeAddView:
		return modeAddView, nil
	case modeAddClear:
		return modeAddClear, nil
	default:
		return "", fmt.Errorf("unsupported mode: %s", value)
	}
}

func main() {
	cfg, err := parseConfig()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	startedAt := time.Now()
	runID := fmt.Sprintf("%d-%d", startedAt.UnixNano(), os.Getpid())
	col := newCollector()

	jobs := make(chan int, cfg.concurrency*2)
	var failures int64
	var wg sync.WaitGroup

	for workerID := 0; workerID < cfg.concurrency; workerID++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if runErr := runScenario(cfg, id, runID, col); runErr != nil {
					atomic.AddInt64(&failures, 1)
				}
			}
		}()
	}

	dispatchJobs(jobs, cfg)
	wg.Wait()

	duration := time.Since(startedAt)
	result := col.buildReport(startedAt, duration)
	if result.FailedScenarios == 0 && failures > 0 {
		result.FailedScenarios = failures
		result.ErrorRate = ratio(result.FailedScenarios, result.TotalScenarios)
	}

	printReport(result, cfg)
	if cfg.outputPath != "" {
		if err := writeJSONReport(cfg.outputPath, result); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
			os.Exit(1)
		}
	}

	if result.FailedScenarios > 0 {
		os.Exit(1)
	}
}

func dispatchJobs(jobs chan<- int, cfg config) {
	defer close(jobs)

	if cfg.duration <= 0 {
		for i := 0; i < cfg.total; i++ {
			jobs <- i
		}
		return
	}

	timer := time.NewTimer(cfg.duration)
	defer timer.Stop()

	for i := 0; ; i++ {
		if cfg.totalSet && i >= cfg.total {
			return
		}

		select {
		case <-timer.C:
			return
		case jobs <- i:
		}
	}
}

// runScenario выполняет один сценарий в отдельной сессии: собственный
// cookie jar даёт каждому сценарию свою корзину.
func runScenario(cfg config, index int, runID string, col *collector) error {
	scenarioStart := time.Now()
	scenarioFailed := false
	defer func() {
		status := http.StatusOK
		var scenarioErr error
		if scenarioFailed {
			status = 0
			scenarioErr = errors.New("scenario failed")
		}
		col.record("scenario", time.Since(scenarioStart), status, scenarioErr)
	}()

	jar, err := cookiejar.New(nil)
	if err != nil {
		scenarioFailed = true
		return err
	}
	client := &http.Client{Timeout: cfg.timeout, Jar: jar}

	for i := 0; i < cfg.items; i++ {
		key := fmt.Sprintf("lt-add-%s-%d-%d", runID, index, i)
		body := map[string]any{
			"product_id": seededProductIDs[i],
			"quantity":   cfg.quantity,
		}
		if err := callCart(client, cfg, http.MethodPost, "/api/cart/items", body, key, "AddItem", col); err != nil {
			scenarioFailed = true
			return err
		}
	}

	if cfg.mode == modeAdd {
		return nil
	}

	if err := callCart(client, cfg, http.MethodGet, "/api/cart/count", nil, "", "GetCount", col); err != nil {
		scenarioFailed = true
		return err
	}
	if err := callCart(client, cfg, http.MethodGet, "/api/cart/totals", nil, "", "GetTotals", col); err != nil {
		scenarioFailed = true
		return err
	}

	if cfg.mode == modeAddClear {
		key := fmt.Sprintf("lt-clear-%s-%d", runID, index)
		if err := callCart(client, cfg, http.MethodDelete, "/api/cart", nil, key, "ClearCart", col); err != nil {
			scenarioFailed = true
			return err
		}
	}

	return nil
}

func callCart(
	client *http.Client,
	cfg config,
	method, path string,
	body map[string]any,
	idempotencyKey, operation string,
	col *collector,
) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, cfg.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set(idempotencyHeader, idempotencyKey)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		col.record(operation, time.Since(start), 0, err)
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	col.record(operation, time.Since(start), resp.StatusCode, nil)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned status %d", operation, resp.StatusCode)
	}
	return nil
}

func writeJSONReport(path string, result report) error {
	cleanPath := filepath.Clean(path)
	if cleanPath == "." || cleanPath == string(filepath.Separator) {
		return errors.New("output path must point to a file")
	}
	if cleanPath == ".." || strings.HasPrefix(cleanPath, ".."+string(filepath.Separator)) {
		return fmt.Errorf("output path must be inside current directory: %s", path)
	}

	// #nosec G304 -- path is an explicit CLI output parameter for local load-test reports.
	file, err := os.Create(cleanPath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func printReport(result report, cfg config) {
	fmt.Println("Load test summary")
	fmt.Printf("mode=%s run=%s total=%d success=%d failed=%d error_rate=%.4f\n",
		cfg.mode,
		runTarget(cfg),
		result.TotalScenarios,
		result.SuccessScenarios,
		result.FailedScenarios,
		result.ErrorRate,
	)
	fmt.Printf("duration=%.2fs rps=%.2f\n", result.DurationSeconds, result.RPS)
	fmt.Printf("scenario latency ms: min=%.2f avg=%.2f p50=%.2f p95=%.2f p99=%.2f max=%.2f\n",
		result.ScenarioLatencyMs.Min,
		result.ScenarioLatencyMs.Avg,
		result.ScenarioLatencyMs.P50,
		result.ScenarioLatencyMs.P95,
		result.ScenarioLatencyMs.P99,
		result.ScenarioLatencyMs.Max,
	)

	operationNames := make([]string, 0, len(result.Operations))
	for name := range result.Operations {
		if name == "scenario" {
			continue
		}
		operationNames = append(operationNames, name)
	}
	sort.Strings(operationNames)
	for _, name := range operationNames {
		stats := result.Operations[name]
		fmt.Printf(
			"%s: calls=%d success=%d failed=%d error_rate=%.4f p95=%.2fms\n",
			name,
			stats.Calls,
			stats.Success,
			stats.Failed,
			stats.ErrorRate,
			stats.LatencyMs.P95,
		)
	}
}

func runTarget(cfg config) string {
	if cfg.duration <= 0 {
		return fmt.Sprintf("count:%d", cfg.total)
	}
	if cfg.totalSet {
		return fmt.Sprintf("duration:%s,max-total:%d", cfg.duration, cfg.total)
	}
	return fmt.Sprintf("duration:%s", cfg.duration)
}

func buildLatencySummary(values []float64) latencySummary {
	if len(values) == 0 {
		return latencySummary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, value := range sorted {
		sum += value
	}

	return latencySummary{
		Min: sorted[0],
		Max: sorted[len(sorted)-1],
		Avg: sum / float64(len(sorted)),
		P50: percentile(sorted, 50),
		P95: percentile(sorted, 95),
		P99: percentile(sorted, 99),
	}
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}

	weight := rank - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*weight
}

func ratio(failed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(failed) / float64(total)
}
