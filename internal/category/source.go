package category

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultFeedURL is the public MCC code list.
const DefaultFeedURL = "https://raw.githubusercontent.com/greggles/mcc-codes/main/mcc_codes.json"

// Source loads the full code to description table.
type Source interface {
	Load(ctx context.Context) (map[string]string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (map[string]string, error)

func (f SourceFunc) Load(ctx context.Context) (map[string]string, error) { return f(ctx) }

// HTTPSource downloads the table from a JSON feed.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) Load(ctx context.Context) (map[string]string, error) {
	url := s.URL
	if url == "" {
		url = DefaultFeedURL
	}
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching MCC codes: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching MCC codes: unexpected status %d", resp.StatusCode)
	}
	return Decode(resp.Body)
}

// FileSource reads the table from a local copy of the feed.
type FileSource struct {
	Path string
}

func (s FileSource) Load(_ context.Context) (map[string]string, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("opening MCC file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// code accepts both "0742" and 742.
type code string

func (c *code) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = code(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("mcc must be a string or number: %w", err)
	}
	*c = code(n.String())
	return nil
}

type entry struct {
	MCC         code   `json:"mcc"`
	Description string `json:"edited_description"`
}

// Decode reads the feed format: [{"mcc":"0742","edited_description":"..."}].
// Entries without a code or description are ignored.
func Decode(r io.Reader) (map[string]string, error) {
	var entries []entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decoding MCC codes: %w", err)
	}
	table := make(map[string]string, len(entries))
	for _, e := range entries {
		c := Normalize(string(e.MCC))
		if c == "" || e.Description == "" {
			continue
		}
		table[c] = e.Description
	}
	return table, nil
}

// Normalize trims a code and left-pads numeric codes to four digits.
func Normalize(c string) string {
	c = strings.TrimSpace(c)
	if n, err := strconv.Atoi(c); err == nil && n >= 0 && len(c) < 4 {
		return fmt.Sprintf("%04d", n)
	}
	return c
}
