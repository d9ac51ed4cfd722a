// sync-client tails the bookmark event stream from the TCP sync port.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"time"
)

type event map[string]any

func main() {
	addr := flag.String("addr", "127.0.0.1:7070", "TCP sync server address")
	pretty := flag.Bool("pretty", true, "pretty print JSON events")
	story := flag.String("story", "", "only show events for this story id")
	flag.Parse()

	for {
		if err := run(*addr, *pretty, *story); err != nil {
			log.Printf("[sync-client] disconnected: %v", err)
		}
		time.Sleep(1 * time.Second) // auto reconnect
	}
}

func run(addr string, pretty bool, story string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("[sync-client] connected to %s", addr)

	if story != "" {
		// The hub filters server-side once it sees the subscription line.
		if _, err := fmt.Fprintln(conn, story); err != nil {
			return fmt.Errorf("subscribe to story %s: %w", story, err)
		}
	}

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		line := sc.Bytes()

		var ev event
		if err := json.Unmarshal(line, &ev); err != nil {
			// not JSON? print raw
			fmt.Println(string(line))
			continue
		}

		if !pretty {
			fmt.Println(string(line))
			continue
		}
		b, _ := json.MarshalIndent(ev, "", "  ")
		fmt.Println(string(b))
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return fmt.Errorf("connection closed by server")
}
