// Package universe loads the ticker universe and display names that a scan
// runs over, and normalizes free-text ticker input.
package universe

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"macd-scan-go/src/models"

	"golang.org/x/text/width"
	"gopkg.in/yaml.v3"
)

// File is the on-disk YAML layout.
type File struct {
	JP    []string          `yaml:"jp"`
	US    []string          `yaml:"us"`
	Names map[string]string `yaml:"names"`
}

// Universe is an ordered, de-duplicated ticker list plus a name lookup.
type Universe struct {
	Tickers []models.Ticker
	names   map[string]string
}

// Load reads a YAML universe file from disk.
func Load(path string) (*Universe, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open universe: %w", err)
	}
	defer file.Close()

	var f File
	if err := yaml.NewDecoder(file).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return New(f)
}

// New builds a universe from a decoded file. JP codes are sorted, US symbols
// keep their listed order; duplicates are dropped.
func New(f File) (*Universe, error) {
	u := &Universe{names: make(map[string]string, len(f.Names))}
	for symbol, name := range f.Names {
		if t, ok := ParseToken(symbol); ok {
			u.names[t.Symbol] = name
		}
	}

	var jp []models.Ticker
	seen := make(map[string]bool)
	for _, raw := range f.JP {
		t, ok := ParseToken(raw)
		if !ok || t.Market != models.MarketJP {
			return nil, fmt.Errorf("invalid JP code %q", raw)
		}
		if !seen[t.Symbol] {
			seen[t.Symbol] = true
			jp = append(jp, t)
		}
	}
	sort.Slice(jp, func(i, j int) bool { return jp[i].Symbol < jp[j].Symbol })

	var us []models.Ticker
	for _, raw := range f.US {
		t, ok := ParseToken(raw)
		if !ok || t.Market != models.MarketUS {
			return nil, fmt.Errorf("invalid US symbol %q", raw)
		}
		if !seen[t.Symbol] {
			seen[t.Symbol] = true
			us = append(us, t)
		}
	}

	u.Tickers = u.withNames(append(jp, us...))
	return u, nil
}

// Name returns the display name of symbol, or the symbol itself.
func (u *Universe) Name(symbol string) string {
	if name, ok := u.names[symbol]; ok {
		return name
	}
	return symbol
}

// Parse replaces the ticker list with free-text input, keeping the name table.
// Tokens that are not tickers are returned separately.
func (u *Universe) Parse(text string) (*Universe, []string) {
	tickers, rejected := ParseText(text)
	return &Universe{Tickers: u.withNames(tickers), names: u.names}, rejected
}

func (u *Universe) withNames(tickers []models.Ticker) []models.Ticker {
	for i := range tickers {
		tickers[i].Name = u.Name(tickers[i].Symbol)
	}
	return tickers
}

// ParseText splits free-form input on commas, whitespace and Japanese
// punctuation and classifies each token. Duplicates are dropped, order kept.
func ParseText(text string) ([]models.Ticker, []string) {
	tokens := strings.FieldsFunc(width.Fold.String(text), func(r rune) bool {
		return r == ',' || r == ';' || r == '、' || r == '，' || unicode.IsSpace(r)
	})

	var tickers []models.Ticker
	var rejected []string
	seen := make(map[string]bool)
	for _, token := range tokens {
		t, ok := ParseToken(token)
		if !ok {
			rejected = append(rejected, token)
			continue
		}
		if seen[t.Symbol] {
			continue
		}
		seen[t.Symbol] = true
		tickers = append(tickers, t)
	}
	return tickers, rejected
}

// ParseToken maps one token to a normalized ticker. Four-character codes
// starting with a digit (7203, 285A) and ".T" symbols are Tokyo listings;
// anything else made of letters, digits, '.' and '-' is a US symbol.
func ParseToken(token string) (models.Ticker, bool) {
	token = strings.ToUpper(strings.TrimSpace(width.Fold.String(token)))
	if token == "" {
		return models.Ticker{}, false
	}

	code := strings.TrimSuffix(token, ".T")
	if isTokyoCode(code) {
		return models.Ticker{Symbol: code + ".T", Market: models.MarketJP}, true
	}
	if strings.HasSuffix(token, ".T") {
		return models.Ticker{}, false
	}

	for _, r := range token {
		if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') && r != '.' && r != '-' {
			return models.Ticker{}, false
		}
	}
	if token[0] < 'A' || token[0] > 'Z' {
		return models.Ticker{}, false
	}
	return models.Ticker{Symbol: token, Market: models.MarketUS}, true
}

func isTokyoCode(code string) bool {
	if len(code) != 4 || code[0] < '0' || code[0] > '9' {
		return false
	}
	for _, r := range code {
		if !(r >= '0' && r <= '9') && !(r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}
