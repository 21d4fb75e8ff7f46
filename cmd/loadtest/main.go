package main

import (
	"flag"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/calltrace"
	"github.com/hubenschmidt/asr-llm-tts-poc/calltrace/internal/ws"
)

func main() {
	gateway := flag.String("gateway", "ws://localhost:8000/ws/conversation", "gateway WebSocket URL")
	concurrency := flag.Int("concurrency", 10, "number of concurrent conversations")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	messages := flag.Int("messages", 6, "messages per session")
	room := flag.String("room", "loadtest", "room every conversation joins")
	flag.Parse()

	fmt.Printf("Load test: %d concurrent conversations for %s\n", *concurrency, *duration)
	fmt.Printf("Gateway: %s | Messages per session: %d\n\n", *gateway, *messages)

	var mu sync.Mutex
	var results []sessionResult
	var wg sync.WaitGroup

	deadline := time.Now().Add(*duration)
	url := *gateway + "?room=" + *room

	for c := 0; c < *concurrency; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for time.Now().Before(deadline) {
				r := runSession(url, *messages)
				mu.Lock()
				results = append(results, r)
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	printSummary(results)
}

type sessionResult struct {
	success  bool
	ackMs    []float64
	totalMs  float64
	messages int
	err      string
}

func runSession(url string, n int) sessionResult {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return sessionResult{err: fmt.Sprintf("dial: %v", err)}
	}
	defer conn.Close()

	start := time.Now()
	if _, err = exchange(conn, ws.Frame{Type: "start"}, "session_started"); err != nil {
		return sessionResult{err: err.Error()}
	}

	var acks []float64
	for i := 0; i < n; i++ {
		msg := &calltrace.ChatMessage{
			ID:        uuid.NewString(),
			Timestamp: time.Now().UnixMilli(),
			Message:   fmt.Sprintf("load test message %d", i),
			From:      &calltrace.Participant{Identity: participant(i), IsLocal: i%2 == 0},
		}
		sent := time.Now()
		if _, err = exchange(conn, ws.Frame{Type: "message", Message: msg}, "message_added"); err != nil {
			return sessionResult{err: err.Error()}
		}
		acks = append(acks, float64(time.Since(sent).Microseconds())/1000)
	}

	ended, err := exchange(conn, ws.Frame{Type: "end"}, "session_ended")
	if err != nil {
		return sessionResult{err: err.Error()}
	}
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

	return sessionResult{
		success:  true,
		ackMs:    acks,
		totalMs:  float64(time.Since(start).Microseconds()) / 1000,
		messages: ended.MessageCount,
	}
}

func participant(i int) string {
	if i%2 == 0 {
		return "caller"
	}
	return "agent"
}

// exchange sends f and waits for the reply, which must be of type want.
func exchange(conn *websocket.Conn, f ws.Frame, want string) (ws.Event, error) {
	var ev ws.Event
	if err := conn.WriteJSON(f); err != nil {
		return ev, fmt.Errorf("send %s: %w", f.Type, err)
	}
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	if err := conn.ReadJSON(&ev); err != nil {
		return ev, fmt.Errorf("read %s reply: %w", f.Type, err)
	}
	if ev.Type != want {
		return ev, fmt.Errorf("%s: got %q (%s), want %q", f.Type, ev.Type, ev.Text, want)
	}
	return ev, nil
}

func printSummary(results []sessionResult) {
	var succeeded, failed, msgs int
	var ackAll, e2eAll []float64
	errs := map[string]int{}

	for _, r := range results {
		if !r.success {
			failed++
			errs[r.err]++
			continue
		}
		succeeded++
		msgs += r.messages
		ackAll = append(ackAll, r.ackMs...)
		e2eAll = append(e2eAll, r.totalMs)
	}

	fmt.Printf("\n=== Load Test Results ===\n")
	fmt.Printf("Sessions completed: %d\n", succeeded)
	fmt.Printf("Sessions failed:    %d\n", failed)
	fmt.Printf("Messages recorded:  %d\n", msgs)
	for e, c := range errs {
		fmt.Printf("  %dx %s\n", c, e)
	}

	if len(e2eAll) == 0 {
		fmt.Println("No successful sessions to report latency")
		return
	}

	fmt.Printf("\n%-8s %8s %8s %8s\n", "Stage", "p50", "p95", "p99")
	fmt.Printf("%-8s %8.1fms %8.1fms %8.1fms\n", "Message", percentile(ackAll, 50), percentile(ackAll, 95), percentile(ackAll, 99))
	fmt.Printf("%-8s %8.1fms %8.1fms %8.1fms\n", "Session", percentile(e2eAll, 50), percentile(e2eAll, 95), percentile(e2eAll, 99))
}

func percentile(data []float64, pct float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sort.Float64s(data)
	idx := int(math.Ceil(pct/100*float64(len(data)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(data) {
		idx = len(data) - 1
	}
	return data[idx]
}
