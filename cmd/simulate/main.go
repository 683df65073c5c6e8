// Traffic simulator for exercising a running Sentinel instance.
//
// Usage:
//   go run cmd/simulate/main.go -url http://localhost:8080 -users 5 -rounds 10
//
// This tool:
//  1. Generates plausible transactions for a set of users
//  2. Includes one deliberately risky user (large amounts, shifting locations)
//  3. Fetches the risk assessment for each ingested transaction
//  4. Prints the final credit profile and limit decision per user
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"time"
)

// TransactionRequest is the Sentinel ingestion payload.
type TransactionRequest struct {
	UserID   string  `json:"user_id"`
	Amount   float64 `json:"amount"`
	Merchant string  `json:"merchant"`
	Category string  `json:"category"`
	Location string  `json:"location"`
	DeviceID string  `json:"device_id"`
}

// TransactionResponse is the Sentinel ingestion response.
type TransactionResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

// RiskAssessment mirrors the GET /risk/{id} response.
type RiskAssessment struct {
	TransactionID string   `json:"transaction_id"`
	RiskScore     int      `json:"risk_score"`
	RiskLevel     string   `json:"risk_level"`
	Reasons       []string `json:"reasons"`
}

// CreditProfile mirrors the GET /credit/{id} response.
type CreditProfile struct {
	UserID      string   `json:"user_id"`
	CreditScore int      `json:"credit_score"`
	Grade       string   `json:"grade"`
	Factors     []string `json:"factors"`
}

// LimitDecision mirrors the GET /limit/{id} response.
type LimitDecision struct {
	UserID        string   `json:"user_id"`
	BaseLimit     float64  `json:"base_limit"`
	AdjustedLimit float64  `json:"adjusted_limit"`
	Decision      string   `json:"decision"`
	Reasons       []string `json:"reasons"`
}

var (
	merchants  = []string{"GreenGrocer", "ByteMart", "CityTransit", "CafeNoir", "StreamFlix", "PharmaPlus"}
	categories = []string{"groceries", "electronics", "transport", "dining", "entertainment", "health"}
	locations  = []string{"Amsterdam", "Rotterdam", "Utrecht", "Eindhoven", "Groningen"}
	riskyCity  = []string{"Panama City", "Macau", "Tbilisi", "Willemstad"}
)

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Sentinel base URL")
	users := flag.Int("users", 5, "Number of normal users to simulate")
	rounds := flag.Int("rounds", 10, "Transactions per user")
	workers := flag.Int("workers", 4, "Number of concurrent workers")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	verbose := flag.Bool("verbose", false, "Print each transaction result")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	fmt.Println("╔═══════════════════════════════════════════════╗")
	fmt.Println("║       SENTINEL SIMULATOR - Traffic Run        ║")
	fmt.Println("╚═══════════════════════════════════════════════╝")
	fmt.Printf("\nSentinel URL: %s\n", *baseURL)
	fmt.Printf("Users:        %d normal + 1 risky\n", *users)
	fmt.Printf("Rounds:       %d\n", *rounds)
	fmt.Printf("Workers:      %d\n", *workers)
	fmt.Printf("Seed:         %d\n", *seed)
	fmt.Println()

	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Sentinel not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Sentinel is running:")
		fmt.Println("  go run cmd/sentinel/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ Sentinel is healthy")

	// Build the work list: normal users plus one risky user.
	userIDs := make([]string, 0, *users+1)
	var requests []TransactionRequest
	for u := 0; u < *users; u++ {
		userID := fmt.Sprintf("user-%03d", u+1)
		userIDs = append(userIDs, userID)
		home := locations[rng.Intn(len(locations))]
		for i := 0; i < *rounds; i++ {
			requests = append(requests, normalTransaction(rng, userID, home))
		}
	}

	riskyUser := "user-risky"
	userIDs = append(userIDs, riskyUser)
	for i := 0; i < *rounds; i++ {
		requests = append(requests, riskyTransaction(rng, riskyUser))
	}

	fmt.Printf("\nIngesting %d transactions...\n", len(requests))

	client := &http.Client{Timeout: 10 * time.Second}
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		errCount  int
		highCount int
	)
	workCh := make(chan TransactionRequest)

	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range workCh {
				assessment, err := ingestAndScore(client, *baseURL, req)
				mu.Lock()
				if err != nil {
					errCount++
				} else if assessment.RiskLevel == "HIGH" {
					highCount++
				}
				mu.Unlock()
				if *verbose && err == nil {
					fmt.Printf("  %s %-10s amount=%8.2f score=%3d %s\n",
						assessment.TransactionID[:8], req.UserID, req.Amount,
						assessment.RiskScore, assessment.RiskLevel)
				}
			}
		}()
	}

	for _, req := range requests {
		workCh <- req
	}
	close(workCh)
	wg.Wait()

	fmt.Printf("✓ Done (%d errors, %d HIGH risk)\n", errCount, highCount)

	fmt.Println("\nPer-user results:")
	fmt.Println("  USER        CREDIT  GRADE      LIMIT DECISION")
	for _, userID := range userIDs {
		profile, err1 := fetchCredit(client, *baseURL, userID)
		decision, err2 := fetchLimit(client, *baseURL, userID)
		if err1 != nil || err2 != nil {
			fmt.Printf("  %-10s  <error>\n", userID)
			continue
		}
		fmt.Printf("  %-10s  %6d  %-9s  %8.2f %s\n",
			userID, profile.CreditScore, profile.Grade,
			decision.AdjustedLimit, decision.Decision)
	}
	fmt.Println()
}

// normalTransaction produces modest spending from the user's home city.
func normalTransaction(rng *rand.Rand, userID, home string) TransactionRequest {
	i := rng.Intn(len(merchants))
	return TransactionRequest{
		UserID:   userID,
		Amount:   10 + rng.Float64()*190,
		Merchant: merchants[i],
		Category: categories[i],
		Location: home,
		DeviceID: "device-" + userID,
	}
}

// riskyTransaction produces large amounts from rotating unusual locations.
func riskyTransaction(rng *rand.Rand, userID string) TransactionRequest {
	i := rng.Intn(len(merchants))
	return TransactionRequest{
		UserID:   userID,
		Amount:   4000 + rng.Float64()*6000,
		Merchant: merchants[i],
		Category: categories[i],
		Location: riskyCity[rng.Intn(len(riskyCity))],
		DeviceID: fmt.Sprintf("device-%d", rng.Intn(1000)),
	}
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned %d", resp.StatusCode)
	}
	return nil
}

func ingestAndScore(client *http.Client, baseURL string, req TransactionRequest) (*RiskAssessment, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	resp, err := client.Post(baseURL+"/transactions", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("ingest returned %d", resp.StatusCode)
	}

	var txResp TransactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&txResp); err != nil {
		return nil, err
	}

	riskResp, err := client.Get(baseURL + "/risk/" + txResp.TransactionID)
	if err != nil {
		return nil, err
	}
	defer riskResp.Body.Close()
	if riskResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("risk returned %d", riskResp.StatusCode)
	}

	var assessment RiskAssessment
	if err := json.NewDecoder(riskResp.Body).Decode(&assessment); err != nil {
		return nil, err
	}
	return &assessment, nil
}

func fetchCredit(client *http.Client, baseURL, userID string) (*CreditProfile, error) {
	resp, err := client.Get(baseURL + "/credit/" + userID)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("credit returned %d", resp.StatusCode)
	}
	var profile CreditProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func fetchLimit(client *http.Client, baseURL, userID string) (*LimitDecision, error) {
	resp, err := client.Get(baseURL + "/limit/" + userID)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("limit returned %d", resp.StatusCode)
	}
	var decision LimitDecision
	if err := json.NewDecoder(resp.Body).Decode(&decision); err != nil {
		return nil, err
	}
	return &decision, nil
}
