package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatewell-labs/formgate/internal/models"
	"github.com/gatewell-labs/formgate/internal/schema"
)

var (
	seedURL       string
	seedEndpoints string
	seedCount     int
	seedInterval  time.Duration
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Send generated submissions to a running gateway",
	Long: `Generate schema-valid submissions and POST them to the gateway.

Examples:
  # 10 contact submissions against a local gateway
  formctl seed --count 10

  # Spread across several endpoints with a delay between posts
  formctl seed --endpoint contact,quote,review --count 30 --interval 2s`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedURL, "url", "http://localhost:8070", "gateway base URL")
	seedCmd.Flags().StringVar(&seedEndpoints, "endpoint", "contact", "comma-separated endpoint names")
	seedCmd.Flags().IntVar(&seedCount, "count", 10, "number of submissions to send")
	seedCmd.Flags().DurationVar(&seedInterval, "interval", 0, "delay between submissions")
}

func runSeed(cmd *cobra.Command, args []string) error {
	endpoints := strings.Split(seedEndpoints, ",")
	forms := schema.All()
	for _, e := range endpoints {
		if _, ok := forms[strings.TrimSpace(e)]; !ok {
			return fmt.Errorf("unknown endpoint: %s", e)
		}
	}

	client := &http.Client{Timeout: 10 * time.Second}
	accepted, rejected := 0, 0

	for i := 0; i < seedCount; i++ {
		endpoint := strings.TrimSpace(endpoints[i%len(endpoints)])

		payload, err := GeneratePayload(endpoint)
		if err != nil {
			return err
		}

		status, envelope, err := postSubmission(client, seedURL, endpoint, payload)
		if err != nil {
			return fmt.Errorf("post to %s: %w", endpoint, err)
		}

		if envelope.Success {
			accepted++
			fmt.Printf("[%d/%d] %s: accepted (request %s)\n", i+1, seedCount, endpoint, envelope.RequestID)
		} else {
			rejected++
			fmt.Printf("[%d/%d] %s: rejected with %d: %s\n", i+1, seedCount, endpoint, status, envelope.Error)
		}

		if seedInterval > 0 && i < seedCount-1 {
			time.Sleep(seedInterval)
		}
	}

	fmt.Printf("\nDone: %d accepted, %d rejected\n", accepted, rejected)
	return nil
}

func postSubmission(client *http.Client, baseURL, endpoint string, payload map[string]any) (int, *models.APIResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}

	resp, err := client.Post(
		strings.TrimRight(baseURL, "/")+"/api/"+endpoint,
		"application/json",
		bytes.NewReader(body),
	)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	var envelope models.APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("decode response: %w", err)
	}

	return resp.StatusCode, &envelope, nil
}
