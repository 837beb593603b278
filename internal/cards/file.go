package cards

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/DoyleJ11/pfn-backend/internal/engine"
)

// FileSource reads a deck from disk. The format follows the extension:
// .json and .yaml/.yml hold a list of entries, .txt holds raw lines.
type FileSource struct {
	Path string
}

func (f FileSource) Load(ctx context.Context) ([]engine.Card, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read card file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".json":
		return ParseJSON(data)
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".txt":
		return ParseRaw(strings.NewReader(string(data)))
	default:
		return nil, fmt.Errorf("unsupported card file %q", f.Path)
	}
}

// entry accepts both deck layouts in circulation: easy/hard and word1/word3.
type entry struct {
	ID    string `json:"id" yaml:"id"`
	Easy  string `json:"easy" yaml:"easy"`
	Hard  string `json:"hard" yaml:"hard"`
	Word1 string `json:"word1" yaml:"word1"`
	Word3 string `json:"word3" yaml:"word3"`
}

func ParseJSON(data []byte) ([]engine.Card, error) {
	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse card json: %w", err)
	}
	return toCards(entries), nil
}

func ParseYAML(data []byte) ([]engine.Card, error) {
	var entries []entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse card yaml: %w", err)
	}
	return toCards(entries), nil
}

// entries missing either clue are dropped
func toCards(entries []entry) []engine.Card {
	cards := make([]engine.Card, 0, len(entries))
	for _, e := range entries {
		easy := strings.TrimSpace(firstNonEmpty(e.Easy, e.Word1))
		hard := strings.TrimSpace(firstNonEmpty(e.Hard, e.Word3))
		if easy == "" || hard == "" {
			continue
		}
		id := e.ID
		if id == "" {
			id = strconv.Itoa(len(cards) + 1)
		}
		cards = append(cards, engine.Card{ID: id, Easy: easy, Hard: hard})
	}
	return cards
}

// ParseRaw reads lines of the form "easy hard words". The first space splits
// the clues and every word is capitalized: first letter upper, the rest lower,
// so "tongue-TIED" becomes "Tongue-tied". Malformed lines are skipped.
func ParseRaw(r io.Reader) ([]engine.Card, error) {
	c := capitalizer{upper: cases.Upper(language.English), lower: cases.Lower(language.English)}
	cards := []engine.Card{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		easy, hard, ok := strings.Cut(line, " ")
		easy, hard = strings.TrimSpace(easy), strings.TrimSpace(hard)
		if !ok || easy == "" || hard == "" {
			continue
		}
		cards = append(cards, engine.Card{
			ID:   strconv.Itoa(len(cards) + 1),
			Easy: c.words(easy),
			Hard: c.words(hard),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read raw cards: %w", err)
	}
	return cards, nil
}

type capitalizer struct {
	upper, lower cases.Caser
}

func (c capitalizer) words(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		_, size := utf8.DecodeRuneInString(w)
		words[i] = c.upper.String(w[:size]) + c.lower.String(w[size:])
	}
	return strings.Join(words, " ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
