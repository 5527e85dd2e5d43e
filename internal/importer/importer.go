// Package importer reads manual expense lists and bank exports from CSV.
package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cleared-dev/splitfeed/internal/model"
)

// Parser converts a CSV file into Transactions.
type Parser interface {
	Parse(r io.Reader) ([]model.Transaction, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a CSV file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats lists the registered format names, sorted.
func (r *Registry) Formats() []string {
	names := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&SimpleParser{})
	r.Register(&ChaseParser{})
	r.Register(&PendingParser{})
	return r
}

// ParseFile parses path with the parser registered for format.
func (r *Registry) ParseFile(path, format string) ([]model.Transaction, error) {
	p := r.Get(format)
	if p == nil {
		return nil, fmt.Errorf("unknown import format %q (known: %s)", format, strings.Join(r.Formats(), ", "))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	txns, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return txns, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// newCSVReader returns a CSV reader that skips a leading UTF-8 BOM.
func newCSVReader(r io.Reader) *csv.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	cr := csv.NewReader(br)
	cr.TrimLeadingSpace = true
	return cr
}

// importDir is the subdirectory for import CSVs.
const importDir = "import"

// processedDir is the subdirectory for processed CSVs.
const processedDir = "import/processed"

// Scan returns CSV files in <root>/import/.
func Scan(root string) ([]FileInfo, error) {
	dir := filepath.Join(root, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(root, fileName string) error {
	src := filepath.Join(root, importDir, fileName)
	dstDir := filepath.Join(root, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
