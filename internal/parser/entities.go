package parser

import (
	"sort"
	"strings"
	"sync"
)

// defaultAliases is the built-in list of bank names searched for in text.
var defaultAliases = []string{
	"Сбербанк", "Сбер", "СберБанк",
	"Тинькофф", "Тинькоф", "Tinkoff",
	"Альфа-Банк", "Альфа Банк", "Альфабанк", "Альфа",
	"ВТБ", "VTB",
	"Райффайзен", "Райффайзенбанк", "Raiffeisen",
	"Газпромбанк", "Газпром банк",
	"Россельхозбанк", "РСХБ",
	"Открытие", "Банк Открытие",
	"Промсвязьбанк", "ПСБ",
	"Совкомбанк",
	"Росбанк",
	"Почта Банк", "Почтабанк",
	"Ренессанс", "Ренессанс Кредит",
	"Хоум Кредит", "Home Credit",
	"МТС Банк", "МТС-Банк",
	"Уралсиб",
	"АК Барс", "Ак Барс Банк",
	"Банк Санкт-Петербург",
	"Юникредит", "UniCredit",
	"Ситибанк", "Citibank",
	"HSBC",
	"Точка", "Точка Банк",
	"Модульбанк", "Модуль Банк",
	"Озон Банк", "Ozon Bank",
	"Яндекс Банк",
}

// defaultCanonical maps aliases to their display form. Aliases missing
// here are their own canonical form.
var defaultCanonical = map[string]string{
	"Сбер":           "Сбербанк",
	"СберБанк":       "Сбербанк",
	"Тинькоф":        "Тинькофф",
	"Tinkoff":        "Тинькофф",
	"Альфа Банк":     "Альфа-Банк",
	"Альфабанк":      "Альфа-Банк",
	"Альфа":          "Альфа-Банк",
	"VTB":            "ВТБ",
	"Райффайзенбанк": "Райффайзен",
	"Raiffeisen":     "Райффайзен",
	"Газпром банк":   "Газпромбанк",
	"РСХБ":           "Россельхозбанк",
	"Банк Открытие":  "Открытие",
	"Почтабанк":      "Почта Банк",
	"Home Credit":    "Хоум Кредит",
	"МТС-Банк":       "МТС Банк",
	"Ак Барс Банк":   "АК Барс",
	"UniCredit":      "Юникредит",
	"Citibank":       "Ситибанк",
	"Точка Банк":     "Точка",
	"Модуль Банк":    "Модульбанк",
	"Ozon Bank":      "Озон Банк",
}

// Entities detects known organisation names in free text.
//
// Every alias is tested as a case-insensitive substring; there is no
// preference for longer aliases, so a text may yield several canonical
// names when overlapping aliases are all present.
type Entities struct {
	aliases   []string
	lowered   []string
	canonical map[string]string

	mu   sync.Mutex
	memo map[string][]string
}

// NewEntities builds an extractor from an alias list and an alias to
// canonical-name table.
func NewEntities(aliases []string, canonical map[string]string) *Entities {
	e := &Entities{
		aliases:   append([]string(nil), aliases...),
		lowered:   make([]string, len(aliases)),
		canonical: make(map[string]string, len(canonical)),
		memo:      make(map[string][]string),
	}
	for i, a := range aliases {
		e.lowered[i] = strings.ToLower(a)
	}
	for k, v := range canonical {
		e.canonical[k] = v
	}
	return e
}

// DefaultEntities returns an extractor over the built-in bank dictionary.
func DefaultEntities() *Entities {
	return NewEntities(defaultAliases, defaultCanonical)
}

// Extract returns the sorted, unique canonical names mentioned in text.
func (e *Entities) Extract(text string) []string {
	lower := strings.ToLower(text)
	found := make(map[string]struct{})
	for i, alias := range e.aliases {
		if !strings.Contains(lower, e.lowered[i]) {
			continue
		}
		name, ok := e.canonical[alias]
		if !ok {
			name = alias
		}
		found[name] = struct{}{}
	}
	out := make([]string, 0, len(found))
	for name := range found {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ExtractCached is Extract memoised under key. The first text seen for a
// key decides the result for that key for the lifetime of e.
func (e *Entities) ExtractCached(key, text string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if hit, ok := e.memo[key]; ok {
		return hit
	}
	res := e.Extract(text)
	e.memo[key] = res
	return res
}
