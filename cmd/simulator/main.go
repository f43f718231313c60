// Simulator drives the progress API with fake gameplay: attempts, level
// completions and the occasional skin purchase. Useful for exercising
// the write-behind path and watching record broadcasts.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"
)

type completion struct {
	Stars           int     `json:"stars"`
	BestTime        float64 `json:"best_time"`
	CoinsEarned     int     `json:"coins_earned"`
	TrophyCollected bool    `json:"trophy_collected"`
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Progress API base URL")
	levels := flag.Int("levels", 10, "Number of levels to play through")
	runs := flag.Int("runs", 3, "Runs per level")
	rate := flag.Duration("rate", 200*time.Millisecond, "Delay between requests")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	post := func(path string, body interface{}) {
		var buf bytes.Buffer
		if body != nil {
			if err := json.NewEncoder(&buf).Encode(body); err != nil {
				log.Fatalf("encoding request: %v", err)
			}
		}
		resp, err := client.Post(*baseURL+path, "application/json", &buf)
		if err != nil {
			log.Fatalf("POST %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode >= 500 {
			log.Fatalf("POST %s: status %d", path, resp.StatusCode)
		}
		time.Sleep(*rate)
	}

	log.Printf("simulating %d runs across %d levels against %s", *runs, *levels, *baseURL)

	for level := 0; level < *levels; level++ {
		for run := 0; run < *runs; run++ {
			post(fmt.Sprintf("/api/v1/levels/%d/attempts", level), nil)

			result := completion{
				Stars:           1 + rand.Intn(3),
				BestTime:        10 + rand.Float64()*50,
				CoinsEarned:     rand.Intn(10),
				TrophyCollected: rand.Intn(5) == 0,
			}
			post(fmt.Sprintf("/api/v1/levels/%d/complete", level), result)
			post(fmt.Sprintf("/api/v1/levels/%d/tries", level), nil)
		}
		log.Printf("level %d done", level)
	}

	// Spend some of the earnings on a random skin.
	post("/api/v1/skins/buy", map[string]int{"id": 1 + rand.Intn(5), "price": 5})

	log.Println("simulation complete")
}
