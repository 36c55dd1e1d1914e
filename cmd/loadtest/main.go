// Package main provides a load testing tool for the HTTP API. It logs in
// once, then hammers the hot read endpoints the mobile app hits on every
// open. Write endpoints are rate limited, so the tool sticks to reads.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// Metrics tracks the test results
type Metrics struct {
	RequestsSent   int64
	RequestsOK     int64
	RequestsFailed int64
	Errors         int64
	LatencyMicros  int64
}

var metrics Metrics

// readPaths are the authenticated GET endpoints exercised by each client.
var readPaths = []string{
	"/api/user/dashboard",
	"/api/recommendation",
	"/api/food-log",
	"/api/menus",
	"/api/public/articles",
}

func main() {
	host := flag.String("host", "localhost:5000", "API server host")
	email := flag.String("email", "user@example.com", "Test user email")
	password := flag.String("password", "secret", "Test user password")
	clients := flag.Int("clients", 20, "Number of concurrent clients")
	duration := flag.Duration("duration", 30*time.Second, "Test duration")
	think := flag.Duration("think", 200*time.Millisecond, "Pause between requests per client")
	flag.Parse()

	log.Printf("🚀 Starting API Load Test")
	log.Printf("Target: %s", *host)
	log.Printf("Clients: %d", *clients)
	log.Printf("Duration: %v", *duration)

	// One login shared by all clients; the login endpoint is rate limited.
	token, err := login(*host, *email, *password)
	if err != nil {
		log.Fatalf("❌ Login failed: %v", err)
	}
	log.Printf("✅ Logged in successfully")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stopChan := make(chan struct{})

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go runClient(*host, token, i, *think, stopChan, &wg)
		time.Sleep(20 * time.Millisecond) // Stagger startup so clients do not fire at once
	}

	select {
	case <-time.After(*duration):
		log.Println("⏱️  Test duration reached")
	case <-interrupt:
		log.Println("🛑 Interrupted by user")
	}

	close(stopChan)
	log.Println("Waiting for clients to finish...")
	wg.Wait()

	printMetrics()
}

func login(host, email, password string) (string, error) {
	loginURL := fmt.Sprintf("http://%s/api/auth/login", host)
	payload := map[string]string{
		"email":    email,
		"password": password,
	}
	body, _ := json.Marshal(payload)

	resp, err := http.Post(loginURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	return result.Token, nil
}

func runClient(host, token string, id int, think time.Duration, stopChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()

	client := &http.Client{Timeout: 10 * time.Second}

	ticker := time.NewTicker(think)
	defer ticker.Stop()

	next := id % len(readPaths)
	for {
		select {
		case <-stopChan:
			return
		case <-ticker.C:
			path := readPaths[next]
			next = (next + 1) % len(readPaths)
			doRequest(client, host, token, path)
		}
	}
}

func doRequest(client *http.Client, host, token, path string) {
	req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("http://%s%s", host, path), nil)
	if err != nil {
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	atomic.AddInt64(&metrics.RequestsSent, 1)

	resp, err := client.Do(req)
	if err != nil {
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	// Drain so the connection can be reused
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	atomic.AddInt64(&metrics.LatencyMicros, time.Since(start).Microseconds())

	if resp.StatusCode == http.StatusOK {
		atomic.AddInt64(&metrics.RequestsOK, 1)
	} else {
		atomic.AddInt64(&metrics.RequestsFailed, 1)
	}
}

func printMetrics() {
	sent := atomic.LoadInt64(&metrics.RequestsSent)

	log.Println("\n📊 Test Results")
	log.Println("===============")
	log.Printf("Requests Sent: %d", sent)
	log.Printf("Requests OK: %d", atomic.LoadInt64(&metrics.RequestsOK))
	log.Printf("Requests Failed: %d", atomic.LoadInt64(&metrics.RequestsFailed))
	log.Printf("Transport Errors: %d", atomic.LoadInt64(&metrics.Errors))
	if sent > 0 {
		avg := time.Duration(atomic.LoadInt64(&metrics.LatencyMicros)/sent) * time.Microsecond
		log.Printf("Average Latency: %v", avg)
	}
}
