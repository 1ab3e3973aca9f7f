package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"charge-optimizer/internal/api/models"
)

// Demo:
// - Fetch the example request from a running API server
// - Submit it for optimization
// - Print the schedule step by step
func main() {
	baseURL := flag.String("url", "http://localhost:7050", "Base URL of the API server")
	timeout := flag.Duration("timeout", 2*time.Minute, "HTTP client timeout")
	flag.Parse()

	client := &http.Client{Timeout: *timeout}

	if err := run(client, *baseURL); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(client *http.Client, baseURL string) error {
	var health models.HealthResponse
	if err := getJSON(client, baseURL+"/optimize/health", &health); err != nil {
		return err
	}
	fmt.Printf("server: %s (%s)\n", health.Status, health.Message)

	var req models.OptimizationInput
	if err := getJSON(client, baseURL+"/optimize/example", &req); err != nil {
		return err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	resp, err := client.Post(baseURL+"/optimize/charge-schedule", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var e models.ErrorResponse
		_ = json.Unmarshal(raw, &e)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, e.Message)
	}

	var res models.OptimizationResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return err
	}
	printResult(&req, &res)
	return nil
}

func getJSON(client *http.Client, url string, v any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: HTTP %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func printResult(req *models.OptimizationInput, res *models.OptimizationResult) {
	fmt.Printf("status: %s\n", res.Status)
	if res.ObjectiveValue != nil {
		fmt.Printf("objective: %.4f\n", *res.ObjectiveValue)
	}
	if len(res.Batteries) == 0 {
		return
	}

	fmt.Printf("%-4s %-8s %-8s %-10s %-10s", "t", "load", "pv", "import", "export")
	for i := range res.Batteries {
		fmt.Printf(" %-10s %-10s %-10s", fmt.Sprintf("c%d", i), fmt.Sprintf("d%d", i), fmt.Sprintf("soc%d", i))
	}
	fmt.Println()
	for t := range res.GridImport {
		fmt.Printf("%-4d %-8.0f %-8.0f %-10.1f %-10.1f",
			t, req.TimeSeries.Gt[t], req.TimeSeries.Ft[t], res.GridImport[t], res.GridExport[t])
		for _, b := range res.Batteries {
			fmt.Printf(" %-10.1f %-10.1f %-10.1f", b.ChargingPower[t], b.DischargingPower[t], b.StateOfCharge[t])
		}
		fmt.Println()
	}
}
