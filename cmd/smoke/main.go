package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Walks a running server through the anonymous chat flow and, when
// ADMIN_TOKEN is set, the admin moderation endpoints.
var baseURL = envOr("SMOKE_BASE_URL", "http://localhost:3000/api")

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Pretty print JSON helper
func prettyPrint(body []byte) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		fmt.Println(string(body))
		return
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

// Request helper
func newRequest(method, url string, headers map[string]string, body interface{}) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func send(method, url string, headers map[string]string, body interface{}) (*http.Response, []byte, error) {
	req, err := newRequest(method, url, headers, body)
	if err != nil {
		return nil, nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func step(title string, method, url string, headers map[string]string, body interface{}) {
	color.Yellow("\n%s", title)
	resp, respBody, err := send(method, url, headers, body)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	if resp.StatusCode >= 400 {
		color.Red("Status: %s", resp.Status)
	} else {
		color.Green("Status: %s", resp.Status)
	}
	prettyPrint(respBody)
}

func stream(title, url string, headers map[string]string, body interface{}) {
	color.Yellow("\n%s", title)
	req, err := newRequest(http.MethodPost, url, headers, body)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	color.Green("Status: %s", resp.Status)

	scanner := bufio.NewScanner(resp.Body)
	event := ""
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data := strings.TrimPrefix(line, "data: ")
			if event == "token" {
				var tok struct {
					Content string `json:"content"`
				}
				_ = json.Unmarshal([]byte(data), &tok)
				fmt.Print(tok.Content)
				continue
			}
			fmt.Println()
			color.Cyan("[%s]", event)
			prettyPrint([]byte(data))
		}
	}
}

func main() {
	color.Cyan("🚀 Starting chat API smoke test against %s\n", baseURL)

	device := map[string]string{"X-Device-Id": "smoke-" + uuid.NewString()}

	step("[ANON] 1. Create device session", http.MethodPost, "/anon-chat/v1/session", device, nil)
	step("[ANON] 2. Quota before chatting", http.MethodGet, "/anon-chat/v1/quota", device, nil)
	step("[ANON] 3. Send a message", http.MethodPost, "/anon-chat/v1/messages", device, map[string]interface{}{
		"content": "Can you share an encouraging verse for a hard week?",
	})
	stream("[ANON] 4. Stream a follow-up", "/anon-chat/v1/messages?stream=true", device, map[string]interface{}{
		"content": "Thank you. Could you explain it a little more?",
	})
	step("[ANON] 5. History", http.MethodGet, "/anon-chat/v1/messages", device, nil)
	step("[ANON] 6. Quota after chatting", http.MethodGet, "/anon-chat/v1/quota", device, nil)

	adminToken := os.Getenv("ADMIN_TOKEN")
	if adminToken == "" {
		color.Magenta("\nADMIN_TOKEN not set, skipping admin checks")
		return
	}
	admin := map[string]string{"Authorization": "Bearer " + adminToken}

	step("[ADMIN] 1. Moderation statistics", http.MethodGet, "/moderation/v1/statistics", admin, nil)
	step("[ADMIN] 2. Latest moderation logs", http.MethodGet, "/moderation/v1/logs?limit=5", admin, nil)
	step("[ADMIN] 3. Feature flags", http.MethodGet, "/admin/feature-flags/v1", admin, nil)

	color.Green("\n✅ Smoke test finished")
}
