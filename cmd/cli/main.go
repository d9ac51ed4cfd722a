// betterfiction is the command line client for the bookmark API server.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"betterfiction/pkg/models"
)

const defaultBaseURL = "http://localhost:8080"

type tokenData struct {
	Token    string `json:"token"`
	DeviceID string `json:"device_id"`
}

func main() {
	global := flag.NewFlagSet("betterfiction", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	client := &http.Client{Timeout: 15 * time.Second}

	switch args[0] {
	case "pair":
		handlePair(ctx, client, *baseURL, *tokenPath, args[1:])
	case "mark":
		handleMark(ctx, client, *baseURL, *tokenPath, args[1:])
	case "unmark":
		handleUnmark(ctx, client, *baseURL, *tokenPath, args[1:])
	case "list":
		handleList(ctx, client, *baseURL, args[1:])
	case "status":
		handleStatus(ctx, client, *baseURL, *tokenPath, args[1:])
	case "logs":
		handleLogs(ctx, client, *baseURL, *tokenPath, args[1:])
	case "devices":
		handleDevices(ctx, client, *baseURL, *tokenPath, args[1:])
	case "listen":
		handleListen(args[1:])
	case "watch":
		handleWatch(*baseURL, args[1:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func handlePair(ctx context.Context, client *http.Client, baseURL, tokenPath string, args []string) {
	fs := flag.NewFlagSet("pair", flag.ExitOnError)
	name := fs.String("name", "", "device name")
	passphrase := fs.String("passphrase", "", "pairing passphrase")
	_ = fs.Parse(args)

	if *name == "" || *passphrase == "" {
		log.Fatal("name and passphrase are required")
	}

	payload := map[string]string{"name": *name, "passphrase": *passphrase}
	var resp struct {
		DeviceID string `json:"device_id"`
		Token    string `json:"token"`
	}
	if err := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/pair", "", payload, &resp); err != nil {
		log.Fatalf("pair failed: %v", err)
	}
	if err := saveToken(tokenPath, tokenData{Token: resp.Token, DeviceID: resp.DeviceID}); err != nil {
		log.Fatalf("save token: %v", err)
	}
	fmt.Printf("paired as device %s\n", resp.DeviceID)
}

func handleMark(ctx context.Context, client *http.Client, baseURL, tokenPath string, args []string) {
	fs := flag.NewFlagSet("mark", flag.ExitOnError)
	id := fs.String("id", "", "story id")
	chapter := fs.Int("chapter", 1, "marked chapter")
	chapters := fs.Int("chapters", 1, "chapter total")
	fandom := fs.String("fandom", "", "fandom")
	author := fs.String("author", "", "author")
	name := fs.String("name", "", "story name")
	status := fs.String("status", string(models.StatusAutomatic), "reading status")
	_ = fs.Parse(args)
	if *id == "" {
		log.Fatal("story id is required")
	}

	payload := map[string]any{
		"id":        *id,
		"chapter":   *chapter,
		"chapters":  *chapters,
		"fandom":    *fandom,
		"author":    *author,
		"storyName": *name,
		"status":    *status,
	}
	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	token := mustToken(tokenPath)
	if err := doJSON(ctx, client, http.MethodPost, baseURL+"/messages/set-bookmark", token, payload, &resp); err != nil {
		log.Fatalf("mark failed: %v", err)
	}
	if !resp.Success {
		log.Fatalf("mark rejected: %s", resp.Error)
	}
	fmt.Printf("marked %s at chapter %d\n", *id, *chapter)
}

func handleUnmark(ctx context.Context, client *http.Client, baseURL, tokenPath string, args []string) {
	fs := flag.NewFlagSet("unmark", flag.ExitOnError)
	id := fs.String("id", "", "story id")
	_ = fs.Parse(args)
	if *id == "" {
		log.Fatal("story id is required")
	}

	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	token := mustToken(tokenPath)
	if err := doJSON(ctx, client, http.MethodPost, baseURL+"/messages/del-bookmark", token, map[string]string{"id": *id}, &resp); err != nil {
		log.Fatalf("unmark failed: %v", err)
	}
	if !resp.Success {
		log.Fatalf("unmark rejected: %s", resp.Error)
	}
	fmt.Printf("unmarked %s\n", *id)
}

func handleList(ctx context.Context, client *http.Client, baseURL string, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "print raw JSON")
	_ = fs.Parse(args)

	var dir map[string]models.Bookmark
	if err := doJSON(ctx, client, http.MethodGet, baseURL+"/messages/get-dir", "", nil, &dir); err != nil {
		log.Fatalf("list failed: %v", err)
	}
	if *asJSON {
		printJSON(dir)
		return
	}

	ids := make([]string, 0, len(dir))
	for id := range dir {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		b := dir[id]
		fmt.Printf("%-12s %4d/%-4d %-10s %s by %s (%s)\n",
			id, b.Chapter, b.Chapters, b.DisplayStatus(), b.StoryName, b.Author,
			models.FormatAddTime(b.AddTime, "DD Mon YYYY"))
	}
	fmt.Printf("%d bookmarks\n", len(ids))
}

func handleStatus(ctx context.Context, client *http.Client, baseURL, tokenPath string, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	id := fs.String("id", "", "story id")
	status := fs.String("set", "", "new status (Automatic|Planned|Reading|Completed|Dropped)")
	_ = fs.Parse(args)
	if *id == "" || *status == "" {
		log.Fatal("id and -set are required")
	}

	var resp struct {
		OK bool `json:"ok"`
	}
	token := mustToken(tokenPath)
	payload := map[string]string{"id": *id, "status": *status}
	if err := doJSON(ctx, client, http.MethodPost, baseURL+"/messages/set-status", token, payload, &resp); err != nil {
		log.Fatalf("status failed: %v", err)
	}
	if !resp.OK {
		log.Fatal("status rejected")
	}
	fmt.Printf("%s → %s\n", *id, *status)
}

func handleLogs(ctx context.Context, client *http.Client, baseURL, tokenPath string, args []string) {
	fs := flag.NewFlagSet("logs", flag.ExitOnError)
	clear := fs.Bool("clear", false, "clear the error log")
	_ = fs.Parse(args)

	token := mustToken(tokenPath)
	if *clear {
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodDelete, baseURL+"/store/logs", token, nil, &resp); err != nil {
			log.Fatalf("clear failed: %v", err)
		}
		fmt.Println("logs cleared")
		return
	}

	var resp struct {
		Items []models.LogEntry `json:"items"`
	}
	if err := doJSON(ctx, client, http.MethodGet, baseURL+"/store/logs", token, nil, &resp); err != nil {
		log.Fatalf("logs failed: %v", err)
	}
	for _, e := range resp.Items {
		fmt.Printf("%s [%s] %s %v\n", e.TS.Format(time.RFC3339), e.Type, e.Message, e.Meta)
	}
}

func handleDevices(ctx context.Context, client *http.Client, baseURL, tokenPath string, args []string) {
	fs := flag.NewFlagSet("devices", flag.ExitOnError)
	revoke := fs.String("revoke", "", "device id to revoke")
	_ = fs.Parse(args)

	token := mustToken(tokenPath)
	if *revoke != "" {
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodDelete, baseURL+"/store/devices/"+url.PathEscape(*revoke), token, nil, &resp); err != nil {
			log.Fatalf("revoke failed: %v", err)
		}
		fmt.Println("revoked")
		return
	}

	var resp map[string]any
	if err := doJSON(ctx, client, http.MethodGet, baseURL+"/store/devices", token, nil, &resp); err != nil {
		log.Fatalf("devices failed: %v", err)
	}
	printJSON(resp)
}

func handleListen(args []string) {
	fs := flag.NewFlagSet("listen", flag.ExitOnError)
	addr := fs.String("addr", "127.0.0.1:7070", "TCP sync server address")
	_ = fs.Parse(args)
	for {
		if err := tailTCP(*addr); err != nil {
			log.Printf("[listen] disconnected: %v", err)
		}
		time.Sleep(1 * time.Second)
	}
}

func handleWatch(baseURL string, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	wsURL := fs.String("ws", "", "WebSocket URL (defaults to /ws on API host)")
	_ = fs.Parse(args)

	endpoint := *wsURL
	if endpoint == "" {
		var err error
		endpoint, err = websocketURL(baseURL, "/ws")
		if err != nil {
			log.Fatalf("ws url: %v", err)
		}
	}

	conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
	if err != nil {
		log.Fatalf("watch failed: %v", err)
	}
	defer conn.Close()
	log.Printf("[watch] connected to %s", endpoint)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			log.Fatalf("watch closed: %v", err)
		}
		fmt.Println(string(msg))
	}
}

func tailTCP(addr string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("[listen] connected to %s", addr)
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		fmt.Println(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return fmt.Errorf("connection closed by server")
}

func doJSON(ctx context.Context, client *http.Client, method, endpoint, token string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("json: %v", err)
	}
	fmt.Println(string(b))
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.betterfiction-token.json"
	}
	return filepath.Join(home, ".betterfiction", "token.json")
}

func saveToken(path string, td tokenData) error {
	if td.Token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(td, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mustToken(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("token not found, run pair first: %v", err)
	}
	var td tokenData
	if err := json.Unmarshal(data, &td); err != nil {
		log.Fatalf("token file corrupt: %v", err)
	}
	token := strings.TrimSpace(td.Token)
	if token == "" {
		log.Fatal("token empty, run pair first")
	}
	return token
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{Scheme: scheme, Host: u.Host, Path: path}).String(), nil
}

func printUsage() {
	fmt.Println("betterfiction <command> [flags]")
	fmt.Println("commands:")
	fmt.Println("  pair    -name <device> -passphrase <phrase>")
	fmt.Println("  mark    -id <story> -chapter N -chapters N [-fandom|-author|-name|-status]")
	fmt.Println("  unmark  -id <story>")
	fmt.Println("  list    [-json]")
	fmt.Println("  status  -id <story> -set <status>")
	fmt.Println("  logs    [-clear]")
	fmt.Println("  devices [-revoke <id>]")
	fmt.Println("  listen  [-addr host:port]   tail TCP sync events")
	fmt.Println("  watch   [-ws url]           tail WebSocket events")
}
