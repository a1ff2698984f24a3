package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	Clients      int
	Days         int
	BookingRatio float64
	StatusRatio  float64
	ReadRatio    float64
}

// DataPool is what workers draw from: sessions, catalog ids and the
// appointments created so far.
type DataPool struct {
	ClientTokens []string
	AdminToken   string
	StylistIDs   []string
	ServiceIDs   []string
	Dates        []string

	mu           sync.RWMutex
	appointments []string
}

func (dp *DataPool) AddAppointment(id string) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) GetRandomAppointment(rng *rand.Rand) (string, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return "", false
	}
	return dp.appointments[rng.Intn(len(dp.appointments))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	latencies := append([]time.Duration(nil), om.Latencies...)
	om.mu.Unlock()

	if len(latencies) == 0 {
		return 0, 0, 0, 0, 0
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	percentile := func(p int) time.Duration {
		idx := len(latencies) * p / 100
		if idx >= len(latencies) {
			idx = len(latencies) - 1
		}
		return latencies[idx]
	}

	return sum / time.Duration(len(latencies)), latencies[0], latencies[len(latencies)-1], percentile(50), percentile(95)
}

type Metrics struct {
	Booking      OperationMetrics
	StatusChange OperationMetrics
	ReadByID     OperationMetrics
	List         OperationMetrics
	Availability OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d clients=%d booking=%.2f status=%.2f read=%.2f",
		cfg.Duration, cfg.Workers, cfg.Clients, cfg.BookingRatio, cfg.StatusRatio, cfg.ReadRatio)

	sim := &Simulator{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := sim.loadDataPool(ctx)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}
	sim.pool = pool
	log.Printf("loaded: %d clients, %d stylists, %d services, %d days",
		len(pool.ClientTokens), len(pool.StylistIDs), len(pool.ServiceIDs), len(pool.Dates))

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		Clients:      getInt("SIM_CLIENTS", 50),
		Days:         getInt("SIM_DAYS", 7),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.5),
		StatusRatio:  getFloat("SIM_STATUS_RATIO", 0.2),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.3),
	}

	total := cfg.BookingRatio + cfg.StatusRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.StatusRatio /= total
		cfg.ReadRatio /= total
	}
	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Clients <= 0 {
		return fmt.Errorf("SIM_CLIENTS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.Days <= 0 {
		return fmt.Errorf("SIM_DAYS must be > 0")
	}
	return nil
}

func (s *Simulator) loadDataPool(ctx context.Context) (*DataPool, error) {
	dp := &DataPool{}

	for i := 0; i < s.config.Clients; i++ {
		var sess struct {
			Token string `json:"token"`
		}
		body := map[string]string{
			"name":     gofakeit.Name(),
			"email":    gofakeit.Email(),
			"phone":    gofakeit.Phone(),
			"password": gofakeit.Password(true, true, true, false, false, 12),
		}
		if err := s.call(ctx, http.MethodPost, "/session/register", "", body, &sess); err != nil {
			return nil, fmt.Errorf("register client: %w", err)
		}
		dp.ClientTokens = append(dp.ClientTokens, sess.Token)
	}

	var admin struct {
		Token string `json:"token"`
	}
	if err := s.call(ctx, http.MethodPost, "/session/login", "", map[string]string{"email": "admin@salon.test", "password": "sim"}, &admin); err != nil {
		return nil, fmt.Errorf("admin login: %w", err)
	}
	dp.AdminToken = admin.Token

	var stylists []struct {
		ID string `json:"id"`
	}
	if err := s.call(ctx, http.MethodGet, "/stylists", "", nil, &stylists); err != nil {
		return nil, fmt.Errorf("load stylists: %w", err)
	}
	for _, st := range stylists {
		dp.StylistIDs = append(dp.StylistIDs, st.ID)
	}

	var services []struct {
		ID string `json:"id"`
	}
	if err := s.call(ctx, http.MethodGet, "/services", "", nil, &services); err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}
	for _, svc := range services {
		dp.ServiceIDs = append(dp.ServiceIDs, svc.ID)
	}

	today := time.Now()
	for d := 1; d <= s.config.Days; d++ {
		dp.Dates = append(dp.Dates, today.AddDate(0, 0, d).Format("2006-01-02"))
	}

	if len(dp.StylistIDs) == 0 {
		return nil, fmt.Errorf("no stylists loaded")
	}
	if len(dp.ServiceIDs) == 0 {
		return nil, fmt.Errorf("no services loaded")
	}
	return dp, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.BookingRatio:
				s.doBooking(ctx, rng)
			case r < s.config.BookingRatio+s.config.StatusRatio:
				s.doStatusChange(ctx, rng)
			default:
				switch rng.Intn(3) {
				case 0:
					s.doReadByID(ctx, rng)
				case 1:
					s.doList(ctx, rng)
				case 2:
					s.doAvailability(ctx, rng)
				}
			}
		}
	}
}

// doBooking picks from a deliberately small slot space so that concurrent
// workers collide on the same stylist, date and time.
func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	p := s.pool
	token := p.ClientTokens[rng.Intn(len(p.ClientTokens))]
	body := map[string]any{
		"stylist_id":  p.StylistIDs[rng.Intn(len(p.StylistIDs))],
		"service_ids": []string{p.ServiceIDs[rng.Intn(len(p.ServiceIDs))]},
		"date":        p.Dates[rng.Intn(len(p.Dates))],
		"time":        fmt.Sprintf("%02d:%02d", 9+rng.Intn(9), 30*rng.Intn(2)),
	}

	start := time.Now()
	var created struct {
		ID string `json:"id"`
	}
	status, err := s.send(ctx, http.MethodPost, "/appointments", token, body, &created)
	latency := time.Since(start)

	success := err == nil && status == http.StatusCreated
	if success && created.ID != "" {
		p.AddAppointment(created.ID)
	}
	s.metrics.Booking.Record(latency, success, status == http.StatusConflict)
}

func (s *Simulator) doStatusChange(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}
	action := []string{"confirm", "complete", "cancel"}[rng.Intn(3)]

	start := time.Now()
	status, err := s.send(ctx, http.MethodPost, "/appointments/"+id+"/"+action, s.pool.AdminToken, nil, nil)
	latency := time.Since(start)

	// invalid transitions come back as 409 and count as conflicts
	s.metrics.StatusChange.Record(latency, err == nil && status == http.StatusOK, status == http.StatusConflict)
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}

	start := time.Now()
	status, err := s.send(ctx, http.MethodGet, "/appointments/"+id, s.pool.AdminToken, nil, nil)
	s.metrics.ReadByID.Record(time.Since(start), err == nil && status == http.StatusOK, false)
}

func (s *Simulator) doList(ctx context.Context, rng *rand.Rand) {
	token := s.pool.ClientTokens[rng.Intn(len(s.pool.ClientTokens))]

	start := time.Now()
	status, err := s.send(ctx, http.MethodGet, "/appointments?scope=upcoming", token, nil, nil)
	s.metrics.List.Record(time.Since(start), err == nil && status == http.StatusOK, false)
}

func (s *Simulator) doAvailability(ctx context.Context, rng *rand.Rand) {
	q := url.Values{}
	q.Set("date", s.pool.Dates[rng.Intn(len(s.pool.Dates))])
	q.Set("stylist_id", s.pool.StylistIDs[rng.Intn(len(s.pool.StylistIDs))])

	start := time.Now()
	status, err := s.send(ctx, http.MethodGet, "/availability?"+q.Encode(), "", nil, nil)
	s.metrics.Availability.Record(time.Since(start), err == nil && status == http.StatusOK, false)
}

func (s *Simulator) call(ctx context.Context, method, path, token string, body, out any) error {
	status, err := s.send(ctx, method, path, token, body, out)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("%s %s: status %d", method, path, status)
	}
	return nil
}

func (s *Simulator) send(ctx context.Context, method, path, token string, body, out any) (int, error) {
	var buf *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		buf = bytes.NewReader(data)
	} else {
		buf = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Status change", &s.metrics.StatusChange)
	printOperationReport("Read by ID", &s.metrics.ReadByID)
	printOperationReport("List upcoming", &s.metrics.List)
	printOperationReport("Availability", &s.metrics.Availability)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

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
