package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"
)

type Stats struct {
	TotalRequests int
	IssuedCount   int
	SoldOutCount  int
	RejectedCount int
	ErrorCount    int
	Latencies     []time.Duration
	StatusCodes   map[int]int
}

func main() {
	fmt.Println("=== Coupon Issuance Load Test ===")
	fmt.Println()

	baseURL := "http://localhost:8080"

	// Test 1: Health endpoint performance
	fmt.Println("[Test 1] Health Endpoint Performance (100 requests)")
	healthStats := runHealthLoadTest(baseURL, 100, 10)
	printStats(healthStats)

	// Test 2: Hot coupon drop per strategy. Each strategy gets its own
	// coupon so the drops don't interfere with each other.
	strategies := []string{"pessimistic", "optimistic", "atomic", "redis"}
	for i, strategy := range strategies {
		couponCode := fmt.Sprintf("LOAD-%s-%d", strategy, time.Now().UnixNano())
		stock := 50
		if err := createCoupon(baseURL, couponCode, stock); err != nil {
			fmt.Printf("\n[Test %d] Skipping %s drop, coupon setup failed: %v\n", i+2, strategy, err)
			continue
		}

		fmt.Printf("\n[Test %d] Coupon Drop via %s strategy (200 users, stock %d)\n", i+2, strategy, stock)
		dropStats := runCouponDrop(baseURL, strategy, couponCode, 200, 20)
		printDropStats(dropStats, stock)
	}

	fmt.Println("\n=== Load Test Complete ===")
}

func createCoupon(baseURL, code string, stock int) error {
	body := map[string]interface{}{
		"code":             code,
		"name":             "Load Test Coupon",
		"coupon_type":      "FIXED_AMOUNT",
		"discount_amount":  "1000",
		"min_order_amount": "5000",
		"start_date":       time.Now().Add(-time.Hour).Format(time.RFC3339),
		"end_date":         time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		"total_quantity":   stock,
	}
	payload, _ := json.Marshal(body)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(baseURL+"/api/coupons", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, raw)
	}
	return nil
}

func runHealthLoadTest(baseURL string, totalRequests, concurrency int) *Stats {
	stats := &Stats{
		StatusCodes: make(map[int]int),
	}
	var mu sync.Mutex
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, concurrency)

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			start := time.Now()
			resp, err := http.Get(baseURL + "/health")
			duration := time.Since(start)

			mu.Lock()
			defer mu.Unlock()

			stats.TotalRequests++
			stats.Latencies = append(stats.Latencies, duration)

			if err != nil {
				stats.ErrorCount++
				return
			}
			defer resp.Body.Close()

			stats.StatusCodes[resp.StatusCode]++
			if resp.StatusCode == 200 {
				stats.IssuedCount++
			} else {
				stats.ErrorCount++
			}
		}()
	}

	wg.Wait()
	return stats
}

// runCouponDrop sends totalUsers distinct users at a single coupon through
// the named strategy endpoint and tallies how the contention resolved.
func runCouponDrop(baseURL, strategy, couponCode string, totalUsers, concurrency int) *Stats {
	stats := &Stats{
		StatusCodes: make(map[int]int),
	}
	var mu sync.Mutex
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, concurrency)
	client := &http.Client{Timeout: 10 * time.Second}

	for i := 0; i < totalUsers; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			body := fmt.Sprintf(`{"coupon_code":%q,"user_id":%d}`, couponCode, userID)
			req, _ := http.NewRequest("POST", baseURL+"/api/coupons/issue/"+strategy, bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")

			start := time.Now()
			resp, err := client.Do(req)
			duration := time.Since(start)

			mu.Lock()
			defer mu.Unlock()

			stats.TotalRequests++
			stats.Latencies = append(stats.Latencies, duration)

			if err != nil {
				stats.ErrorCount++
				return
			}
			defer resp.Body.Close()

			stats.StatusCodes[resp.StatusCode]++
			switch resp.StatusCode {
			case http.StatusCreated:
				stats.IssuedCount++
			case http.StatusConflict:
				stats.SoldOutCount++
			case http.StatusServiceUnavailable:
				// lock contention or retry exhaustion, expected under load
				stats.RejectedCount++
			default:
				stats.ErrorCount++
			}
		}(1000 + i)
	}

	wg.Wait()
	return stats
}

func printStats(stats *Stats) {
	if len(stats.Latencies) == 0 {
		fmt.Println("  No data collected")
		return
	}

	sort.Slice(stats.Latencies, func(i, j int) bool {
		return stats.Latencies[i] < stats.Latencies[j]
	})

	p50 := stats.Latencies[len(stats.Latencies)*50/100]
	p95 := stats.Latencies[len(stats.Latencies)*95/100]
	p99 := stats.Latencies[len(stats.Latencies)*99/100]

	successRate := float64(stats.IssuedCount) / float64(stats.TotalRequests) * 100

	fmt.Printf("  Total Requests: %d\n", stats.TotalRequests)
	fmt.Printf("  Success: %d (%.1f%%)\n", stats.IssuedCount, successRate)
	fmt.Printf("  Errors: %d\n", stats.ErrorCount)
	fmt.Printf("  P50 Latency: %v\n", p50)
	fmt.Printf("  P95 Latency: %v\n", p95)
	fmt.Printf("  P99 Latency: %v\n", p99)

	if p50 < 150*time.Millisecond {
		fmt.Println("  ✅ P50 under 150ms target")
	} else {
		fmt.Println("  ❌ P50 exceeds 150ms target")
	}
}

func printDropStats(stats *Stats, stock int) {
	if len(stats.Latencies) == 0 {
		fmt.Println("  No data collected")
		return
	}

	sort.Slice(stats.Latencies, func(i, j int) bool {
		return stats.Latencies[i] < stats.Latencies[j]
	})

	p50 := stats.Latencies[len(stats.Latencies)*50/100]
	p95 := stats.Latencies[len(stats.Latencies)*95/100]

	fmt.Printf("  Total Requests: %d\n", stats.TotalRequests)
	fmt.Printf("  Issued: %d\n", stats.IssuedCount)
	fmt.Printf("  Sold Out: %d\n", stats.SoldOutCount)
	fmt.Printf("  Contention Rejections: %d\n", stats.RejectedCount)
	fmt.Printf("  Errors: %d\n", stats.ErrorCount)
	fmt.Printf("  P50 Latency: %v\n", p50)
	fmt.Printf("  P95 Latency: %v\n", p95)

	if stats.IssuedCount <= stock && stats.ErrorCount == 0 {
		fmt.Printf("  ✅ No oversell: %d issued for stock of %d\n", stats.IssuedCount, stock)
	} else {
		fmt.Printf("  ❌ Check accounting: %d issued for stock of %d (errors: %d)\n", stats.IssuedCount, stock, stats.ErrorCount)
	}
}
