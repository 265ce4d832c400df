// README: Benchmark cases: environment, webhook lifecycle, PARKED races, revenue and load.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"parking/internal/modules/lot"
	"parking/internal/types"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client

	run    string
	sector string
	lotID  int64
	spots  []types.Point
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	run := uuid.NewString()[:8]
	return &Runner{
		cfg:    cfg,
		httpc:  &http.Client{Timeout: 10 * time.Second},
		run:    run,
		sector: "BENCH-" + run,
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-7s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}
	return results
}

func (r *Runner) plate(tag string) string {
	return strings.ToUpper(r.run + tag)
}

// spot returns the i-th seeded coordinate.
func (r *Runner) spot(i int) types.Point {
	if i < len(r.spots) {
		return r.spots[i]
	}
	return types.Point{Lat: -89, Lng: -179}
}

func (r *Runner) cases() []TestCase {
	now := time.Now().UTC().Truncate(time.Minute)
	return []TestCase{
		{
			Name: "Env: Postgres connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name: "Env: Redis connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: "SKIP", Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name: "Migration: apply (optional)",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigration {
					return Result{Status: "SKIP", Note: "apply-migration=false"}
				}
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				sql, err := os.ReadFile(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				for _, s := range splitSQL(string(sql)) {
					if _, err := r.db.Exec(ctx, s); err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name: "Migration: tables exist",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				tables, err := extractTables(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				for _, t := range tables {
					var exists bool
					err := r.db.QueryRow(ctx,
						"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
						t,
					).Scan(&exists)
					if err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
					if !exists {
						return Result{Status: "FAIL", Note: "missing table: " + t}
					}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name: "Seed: bench sector and spots",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				return r.seed(ctx)
			},
		},
		{
			Name: "API: health",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				resp, err := r.httpc.Get(r.cfg.BaseURL + "/health")
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				_ = resp.Body.Close()
				if resp.StatusCode != http.StatusOK {
					return Result{Status: "FAIL", Note: fmt.Sprintf("status=%d", resp.StatusCode)}
				}
				return Result{Status: "PASS", Latency: time.Since(start)}
			},
		},

		webhookCase("Webhook: ENTRY (valid -> 202)", func(r *Runner) any {
			return map[string]any{"license_plate": r.plate("A"), "entry_time": now.Add(-time.Hour), "event_type": "ENTRY"}
		}, http.StatusAccepted),
		webhookCase("Webhook: ENTRY missing entry_time (-> 422)", func(r *Runner) any {
			return map[string]any{"license_plate": r.plate("B"), "event_type": "ENTRY"}
		}, http.StatusUnprocessableEntity),
		webhookCase("Webhook: ENTRY twice (-> 409)", func(r *Runner) any {
			return map[string]any{"license_plate": r.plate("A"), "entry_time": now.Add(-50 * time.Minute), "event_type": "ENTRY"}
		}, http.StatusConflict),
		webhookCase("Webhook: malformed JSON (-> 400)", func(r *Runner) any {
			return json.RawMessage(`{"license_plate":`)
		}, http.StatusBadRequest),
		webhookCase("Webhook: PARKED (valid -> 202)", func(r *Runner) any {
			s := r.spot(0)
			return map[string]any{"license_plate": r.plate("A"), "lat": s.Lat, "lng": s.Lng, "event_type": "PARKED", "id": r.run + "-parked-a"}
		}, http.StatusAccepted),
		webhookCase("Webhook: PARKED redelivery (-> 409 duplicate)", func(r *Runner) any {
			s := r.spot(0)
			return map[string]any{"license_plate": r.plate("A"), "lat": s.Lat, "lng": s.Lng, "event_type": "PARKED", "id": r.run + "-parked-a"}
		}, http.StatusConflict),
		webhookCase("Webhook: PARKED unknown spot (-> 404)", func(r *Runner) any {
			return map[string]any{"license_plate": r.plate("A"), "lat": 0.000123, "lng": 0.000456, "event_type": "PARKED", "id": r.run + "-nowhere"}
		}, http.StatusNotFound),
		webhookCase("Webhook: EXIT (valid -> 202)", func(r *Runner) any {
			return map[string]any{"license_plate": r.plate("A"), "exit_time": now, "event_type": "EXIT"}
		}, http.StatusAccepted),
		webhookCase("Webhook: EXIT without PARKED (-> 422)", func(r *Runner) any {
			return map[string]any{"license_plate": r.plate("NONE"), "exit_time": now, "event_type": "EXIT"}
		}, http.StatusUnprocessableEntity),
		{
			Name: "DB: visit billed and revenue credited",
			Run: func(ctx context.Context, r *Runner) Result {
				return r.checkBilled(ctx)
			},
		},
		{
			Name: "Race: PARKED same event id (exactly one 202)",
			Run: func(ctx context.Context, r *Runner) Result {
				return r.raceSameEvent(ctx, now)
			},
		},
		{
			Name: "Race: PARKED same spot, different plates (exactly one 202)",
			Run: func(ctx context.Context, r *Runner) Result {
				return r.raceSameSpot(ctx, now)
			},
		},
		{
			Name: "Perf: ENTRY load",
			Run: func(ctx context.Context, r *Runner) Result {
				return r.perfEntries(ctx, now)
			},
		},
	}
}

func (r *Runner) seed(ctx context.Context) Result {
	store := lot.NewStore(r.db)
	l := &lot.Lot{
		Sector:               r.sector,
		BasePrice:            decimal.RequireFromString("10.00"),
		MaxCapacity:          100,
		DurationLimitMinutes: 60,
	}
	if err := store.Save(ctx, l); err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	r.lotID = l.ID
	// Latitude comes from the lot id so repeated runs never share a spot.
	base := float64(int64(l.ID%9000)) / 100
	for i := 0; i < 3; i++ {
		p := types.Point{Lat: base, Lng: float64(i) + 0.5}
		if err := store.AddSpot(ctx, l.ID, p); err != nil {
			return Result{Status: "FAIL", Note: err.Error()}
		}
		r.spots = append(r.spots, p)
	}
	return Result{Status: "PASS", Note: fmt.Sprintf("sector=%s lot=%d", r.sector, l.ID)}
}

func (r *Runner) post(ctx context.Context, body any) (int, time.Duration, error) {
	var b []byte
	if raw, ok := body.(json.RawMessage); ok {
		b = raw
	} else {
		b, _ = json.Marshal(body)
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+"/webhook", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, time.Since(start), nil
}

func webhookCase(name string, body func(r *Runner) any, want int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			status, latency, err := r.post(ctx, body(r))
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			if status != want {
				return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d want=%d", status, want)}
			}
			return Result{Status: "PASS", Latency: latency}
		},
	}
}

func (r *Runner) checkBilled(ctx context.Context) Result {
	if r.db == nil || r.lotID == 0 {
		return Result{Status: "SKIP", Note: "no seeded lot"}
	}
	var typ, paid string
	err := r.db.QueryRow(ctx, `
		SELECT event_type, amount_paid::text FROM parking_events
		WHERE license_plate = $1 ORDER BY entry_time DESC LIMIT 1`, r.plate("A")).Scan(&typ, &paid)
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	var total string
	err = r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::text FROM revenues WHERE parking_id = $1`, r.lotID).Scan(&total)
	if err != nil {
		return Result{Status: "FAIL", Note: err.Error()}
	}
	if typ != "EXIT" {
		return Result{Status: "FAIL", Note: "visit not closed: " + typ}
	}
	p, _ := decimal.NewFromString(paid)
	t, _ := decimal.NewFromString(total)
	if !p.Equal(t) || p.IsZero() {
		return Result{Status: "FAIL", Note: fmt.Sprintf("paid=%s revenue=%s", paid, total)}
	}
	return Result{Status: "PASS", Note: "amount=" + p.StringFixed(2)}
}

func (r *Runner) fanOut(ctx context.Context, bodies []any) (ok, conflict, other int) {
	var mu sync.Mutex
	var wg sync.WaitGroup
	start := make(chan struct{})
	for _, b := range bodies {
		wg.Add(1)
		go func(body any) {
			defer wg.Done()
			<-start
			status, _, err := r.post(ctx, body)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				other++
			case status == http.StatusAccepted:
				ok++
			case status == http.StatusConflict:
				conflict++
			default:
				other++
			}
		}(b)
	}
	close(start)
	wg.Wait()
	return ok, conflict, other
}

func (r *Runner) raceSameEvent(ctx context.Context, now time.Time) Result {
	plate := r.plate("RACE1")
	if status, _, err := r.post(ctx, map[string]any{"license_plate": plate, "entry_time": now.Add(-time.Hour), "event_type": "ENTRY"}); err != nil || status != http.StatusAccepted {
		return Result{Status: "FAIL", Note: fmt.Sprintf("entry status=%d err=%v", status, err)}
	}
	s := r.spot(1)
	bodies := make([]any, r.cfg.Concurrency)
	for i := range bodies {
		bodies[i] = map[string]any{"license_plate": plate, "lat": s.Lat, "lng": s.Lng, "event_type": "PARKED", "id": r.run + "-race1"}
	}
	ok, conflict, other := r.fanOut(ctx, bodies)
	note := fmt.Sprintf("ok=%d conflict=%d other=%d", ok, conflict, other)
	if ok != 1 || other != 0 {
		return Result{Status: "FAIL", Note: note}
	}
	return Result{Status: "PASS", Note: note}
}

func (r *Runner) raceSameSpot(ctx context.Context, now time.Time) Result {
	n := r.cfg.Concurrency
	bodies := make([]any, n)
	s := r.spot(2)
	for i := 0; i < n; i++ {
		plate := r.plate(fmt.Sprintf("SPOT%d", i))
		if status, _, err := r.post(ctx, map[string]any{"license_plate": plate, "entry_time": now.Add(-time.Hour), "event_type": "ENTRY"}); err != nil || status != http.StatusAccepted {
			return Result{Status: "FAIL", Note: fmt.Sprintf("entry %s status=%d err=%v", plate, status, err)}
		}
		bodies[i] = map[string]any{"license_plate": plate, "lat": s.Lat, "lng": s.Lng, "event_type": "PARKED", "id": fmt.Sprintf("%s-spot-%d", r.run, i)}
	}
	ok, conflict, other := r.fanOut(ctx, bodies)
	note := fmt.Sprintf("ok=%d conflict=%d other=%d", ok, conflict, other)
	if ok != 1 || other != 0 {
		return Result{Status: "FAIL", Note: note}
	}
	return Result{Status: "PASS", Note: note}
}

func (r *Runner) perfEntries(ctx context.Context, now time.Time) Result {
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount int64
	var mu sync.Mutex
	wg := sync.WaitGroup{}

	for w := 0; w < r.cfg.Concurrency; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; time.Now().Before(end); i++ {
				body := map[string]any{
					"license_plate": r.plate(fmt.Sprintf("P%d-%d", w, i)),
					"entry_time":    now,
					"event_type":    "ENTRY",
				}
				status, _, err := r.post(ctx, body)
				mu.Lock()
				if err != nil || status != http.StatusAccepted {
					errCount++
				} else {
					count++
				}
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: "FAIL", Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: "PASS", Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	matches := re.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}

func splitSQL(sql string) []string {
	lines := strings.Split(sql, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "--") || l == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	cleaned := strings.Join(filtered, "\n")
	parts := strings.Split(cleaned, ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
