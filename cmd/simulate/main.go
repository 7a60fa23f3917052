package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// simulate fires concurrent availability and booking requests at a running
// api-server. Its main purpose is observing contention behavior: how often
// concurrent bookings for the same slot conflict, and whether double-bookings
// slip through the best-effort availability re-check.

type SimConfig struct {
	APIBaseURL string
	Duration   time.Duration
	Workers    int
	ResourceID string
	Date       string
	HotSlot    string  // every worker fights over this slot
	HotRatio   float64 // share of bookings aimed at the hot slot
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p95
}

type Simulator struct {
	config       SimConfig
	client       *http.Client
	availability OperationMetrics
	booking      OperationMetrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	log.Printf("config: api=%s duration=%s workers=%d resource=%s hot_slot=%s",
		cfg.APIBaseURL, cfg.Duration, cfg.Workers, cfg.ResourceID, cfg.HotSlot)

	sim := &Simulator{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	return SimConfig{
		APIBaseURL: getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:   getDuration("SIM_DURATION", 30*time.Second),
		Workers:    getInt("SIM_WORKERS", 10),
		ResourceID: getEnv("SIM_RESOURCE_ID", "counselor-a"),
		Date:       getEnv("SIM_DATE", time.Now().AddDate(0, 0, 1).Format("2006-01-02")),
		HotSlot:    getEnv("SIM_HOT_SLOT", "10:00 AM"),
		HotRatio:   getFloat("SIM_HOT_RATIO", 0.5),
	}
}

func (s *Simulator) Run() {
	deadline := time.Now().Add(s.config.Duration)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)))
			for time.Now().Before(deadline) {
				if rng.Float64() < 0.5 {
					s.checkAvailability()
				} else {
					s.book(rng, worker)
				}
			}
		}(i)
	}
	wg.Wait()
}

func (s *Simulator) checkAvailability() {
	url := fmt.Sprintf("%s/availability?resourceId=%s&date=%s",
		s.config.APIBaseURL, s.config.ResourceID, s.config.Date)

	start := time.Now()
	resp, err := s.client.Get(url)
	latency := time.Since(start)
	if err != nil {
		s.availability.Record(latency, false, false)
		return
	}
	defer drain(resp)

	s.availability.Record(latency, resp.StatusCode == http.StatusOK, false)
}

var coldSlots = []string{"9:00 AM", "11:00 AM", "1:00 PM", "2:00 PM", "3:00 PM", "4:00 PM"}

func (s *Simulator) book(rng *rand.Rand, worker int) {
	slot := s.config.HotSlot
	if rng.Float64() >= s.config.HotRatio {
		slot = coldSlots[rng.Intn(len(coldSlots))]
	}

	payload, _ := json.Marshal(map[string]string{
		"resourceId":       s.config.ResourceID,
		"date":             s.config.Date,
		"time":             slot,
		"requesterName":    fmt.Sprintf("Sim Worker %d", worker),
		"requesterContact": fmt.Sprintf("worker-%d@simulator.local", worker),
		"reason":           "load simulation",
	})

	start := time.Now()
	resp, err := s.client.Post(s.config.APIBaseURL+"/bookings", "application/json", bytes.NewReader(payload))
	latency := time.Since(start)
	if err != nil {
		s.booking.Record(latency, false, false)
		return
	}
	defer drain(resp)

	s.booking.Record(latency,
		resp.StatusCode == http.StatusCreated,
		resp.StatusCode == http.StatusConflict)
}

func (s *Simulator) PrintReport() {
	fmt.Println()
	fmt.Println("=== Simulation Report ===")
	fmt.Printf("Duration: %s, Workers: %d\n", s.config.Duration, s.config.Workers)
	fmt.Println()

	printOperationReport("Availability", &s.availability)
	printOperationReport("Booking", &s.booking)

	// Double-booking check: with a hot slot contested by every worker, more
	// than one success for it means the check-then-commit race fired.
	hot := atomic.LoadInt64(&s.booking.Success)
	if hot > 1 {
		fmt.Printf("NOTE: %d bookings succeeded; inspect the calendar for same-slot duplicates.\n", hot)
		fmt.Println("Double-booking under true concurrency is a documented limitation of the re-check design.")
	}
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	errs := atomic.LoadInt64(&om.Error)

	avg, min, max, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if errs > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", errs, float64(errs)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond),
		max.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
