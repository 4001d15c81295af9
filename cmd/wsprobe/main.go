// Command wsprobe stress tests the websocket endpoint. It logs in a
// throwaway wallet, opens many concurrent connections and reports
// delivery counts.
package main

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"liber/internal/wallet"
)

type metrics struct {
	connectionsAttempted int64
	connectionsSuccess   int64
	connectionsFailed    int64
	messagesSent         int64
	messagesReceived     int64
	errors               int64
}

var m metrics

func main() {
	host := flag.String("host", "localhost:8080", "API server host")
	walletAddr := flag.String("wallet", "", "wallet address to log in with (random when empty)")
	clients := flag.Int("clients", 50, "number of concurrent clients")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	flag.Parse()

	addr := *walletAddr
	if addr == "" {
		var err error
		addr, err = randomWallet()
		if err != nil {
			log.Fatalf("wallet generation failed: %v", err)
		}
	}

	log.Printf("target=%s clients=%d duration=%v wallet=%s", *host, *clients, *duration, addr)

	token, err := login(*host, addr)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}
	log.Printf("logged in")

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stopCh := make(chan struct{})

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go runClient(*host, token, i, stopCh, &wg)
		time.Sleep(20 * time.Millisecond) // stagger connections
	}

	select {
	case <-time.After(*duration):
		log.Println("duration reached")
	case <-interrupt:
		log.Println("interrupted")
	}

	close(stopCh)
	wg.Wait()
	report()
}

func randomWallet() (string, error) {
	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return wallet.Normalize("0x" + hex.EncodeToString(raw))
}

func login(host, addr string) (string, error) {
	payload, _ := json.Marshal(map[string]string{"wallet_address": addr})

	resp, err := http.Post(
		fmt.Sprintf("http://%s/api/v1/auth/login", host),
		"application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("login status %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Token, nil
}

func runClient(host, token string, id int, stopCh <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&m.connectionsAttempted, 1)

	u := url.URL{Scheme: "ws", Host: host, Path: "/ws", RawQuery: "token=" + token}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		atomic.AddInt64(&m.connectionsFailed, 1)
		atomic.AddInt64(&m.errors, 1)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = conn.Close() }()

	atomic.AddInt64(&m.connectionsSuccess, 1)

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			atomic.AddInt64(&m.messagesReceived, 1)
		}
	}()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			msg, _ := json.Marshal(map[string]interface{}{
				"type":    "ping",
				"payload": map[string]int{"client": id},
			})
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				atomic.AddInt64(&m.errors, 1)
				return
			}
			atomic.AddInt64(&m.messagesSent, 1)
		}
	}
}

func report() {
	log.Println("results")
	log.Printf("  connections attempted: %d", atomic.LoadInt64(&m.connectionsAttempted))
	log.Printf("  connections successful: %d", atomic.LoadInt64(&m.connectionsSuccess))
	log.Printf("  connections failed: %d", atomic.LoadInt64(&m.connectionsFailed))
	log.Printf("  messages sent: %d", atomic.LoadInt64(&m.messagesSent))
	log.Printf("  messages received: %d", atomic.LoadInt64(&m.messagesReceived))
	log.Printf("  errors: %d", atomic.LoadInt64(&m.errors))
}
