// mirror-server serves locally stored chapter HTML at GET /s/{id}/{chapter},
// mimicking the page layout entire-work fetches, so assembly can be exercised
// without touching the real site. Chapters live at <dir>/<story-id>/<n>.html.
package main

import (
	"flag"
	"fmt"
	"html"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func main() {
	dir := flag.String("dir", "data/mirror", "root directory of stored chapters")
	addr := flag.String("addr", ":9000", "listen address")
	flag.Parse()

	http.HandleFunc("/s/", func(w http.ResponseWriter, r *http.Request) {
		id, chapter, err := parsePath(r.URL.Path)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		body, err := os.ReadFile(filepath.Join(*dir, id, fmt.Sprintf("%d.html", chapter)))
		if err != nil {
			http.Error(w, "chapter not stored: "+err.Error(), http.StatusNotFound)
			return
		}
		total := countChapters(*dir, id)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		writePage(w, id, chapter, total, body)
	})

	log.Printf("mirror-server serving %s on %s", *dir, *addr)
	log.Fatal(http.ListenAndServe(*addr, nil))
}

// parsePath splits /s/<id>/<chapter> into its parts.
func parsePath(p string) (string, int, error) {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) != 3 || parts[0] != "s" || parts[1] == "" {
		return "", 0, fmt.Errorf("expected /s/<id>/<chapter>, got %s", p)
	}
	chapter, err := strconv.Atoi(parts[2])
	if err != nil || chapter < 1 {
		return "", 0, fmt.Errorf("bad chapter number %q", parts[2])
	}
	return parts[1], chapter, nil
}

// countChapters counts stored <n>.html files so the chapter dropdown
// reflects what the mirror actually has.
func countChapters(dir, id string) int {
	entries, err := os.ReadDir(filepath.Join(dir, id))
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".html") {
			n++
		}
	}
	return n
}

func writePage(w http.ResponseWriter, id string, chapter, total int, body []byte) {
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html><head><title>Mirror %s</title></head><body>\n", html.EscapeString(id))
	if total > 0 {
		fmt.Fprint(w, "<select id=\"chap_select\">\n")
		for i := 1; i <= total; i++ {
			sel := ""
			if i == chapter {
				sel = " selected"
			}
			fmt.Fprintf(w, "<option value=\"%d\"%s>%d. Chapter %d</option>\n", i, sel, i, i)
		}
		fmt.Fprint(w, "</select>\n")
	}
	fmt.Fprintf(w, "<div id=\"storytext\">\n")
	w.Write(body)
	fmt.Fprintf(w, "\n</div>\n</body></html>\n")
}
