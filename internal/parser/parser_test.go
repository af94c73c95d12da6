package parser

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestExtractTags_DedupKeepsFirstSpelling(t *testing.T) {
	tags := ExtractTags("see #Mobile and #mobile again #Other")
	want := []string{"#Mobile", "#Other"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("tags = %v, want %v", tags, want)
	}
}

func TestExtractTags_Cyrillic(t *testing.T) {
	tags := ExtractTags("Теги: #мобильное_приложение #авторизация #МОБИЛЬНОЕ_приложение")
	want := []string{"#мобильное_приложение", "#авторизация"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("tags = %v, want %v", tags, want)
	}
}

func TestExtractTags_Empty(t *testing.T) {
	if tags := ExtractTags(""); len(tags) != 0 {
		t.Errorf("tags = %v, want none", tags)
	}
	if tags := ExtractTags("no hashes # here"); len(tags) != 0 {
		t.Errorf("lone # should not be a tag: %v", tags)
	}
}

func TestEntities_NormalizedAndSorted(t *testing.T) {
	e := DefaultEntities()
	got := e.Extract("Пользуюсь Сбер и иногда ВТБ")
	want := []string{"ВТБ", "Сбербанк"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("entities = %v, want %v", got, want)
	}
}

func TestEntities_CaseInsensitive(t *testing.T) {
	e := DefaultEntities()
	got := e.Extract("перешёл из tinkoff в vtb")
	want := []string{"ВТБ", "Тинькофф"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("entities = %v, want %v", got, want)
	}
}

func TestEntities_OverlappingAliases(t *testing.T) {
	// "Ренессанс Кредит" contains "Ренессанс"; both aliases are in the
	// dictionary and both are their own canonical form.
	e := DefaultEntities()
	got := e.Extract("кредит в Ренессанс Кредит")
	want := []string{"Ренессанс", "Ренессанс Кредит"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("entities = %v, want %v", got, want)
	}
}

func TestEntities_NoMatch(t *testing.T) {
	e := DefaultEntities()
	if got := e.Extract("ничего интересного"); len(got) != 0 {
		t.Errorf("entities = %v, want none", got)
	}
}

func TestEntities_ExtractCached(t *testing.T) {
	e := DefaultEntities()
	first := e.ExtractCached("Иван", "клиент ВТБ")
	second := e.ExtractCached("Иван", "клиент Сбер")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("cached result changed: %v vs %v", first, second)
	}
	other := DefaultEntities().ExtractCached("Иван", "клиент Сбер")
	if !reflect.DeepEqual(other, []string{"Сбербанк"}) {
		t.Errorf("memo leaked across instances: %v", other)
	}
}

func TestParseEntities(t *testing.T) {
	data := []byte("entities:\n  - canonical: Acme\n    aliases: [ACME Corp, acme inc]\n  - canonical: Globex\n")
	e, err := ParseEntities(data)
	if err != nil {
		t.Fatalf("ParseEntities: %v", err)
	}
	got := e.Extract("worked at Acme Inc then globex")
	want := []string{"Acme", "Globex"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("entities = %v, want %v", got, want)
	}
}

func TestParseEntities_MissingCanonical(t *testing.T) {
	if _, err := ParseEntities([]byte("entities:\n  - aliases: [x]\n")); err == nil {
		t.Error("expected error for entry without canonical name")
	}
}

func TestLoadEntities(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entities.yaml")
	if err := os.WriteFile(path, []byte("entities:\n  - canonical: ВТБ\n    aliases: [VTB]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	e, err := LoadEntities(path)
	if err != nil {
		t.Fatalf("LoadEntities: %v", err)
	}
	if got := e.Extract("vtb online"); !reflect.DeepEqual(got, []string{"ВТБ"}) {
		t.Errorf("entities = %v", got)
	}
	if _, err := LoadEntities(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseReport(t *testing.T) {
	text := "# Анализ интервью: Иван\n\n## Метаданные\n- Респондент: Иван\n- Дата анализа: 2025-01-02 03:04:05\n- model: gpt-4o\n\n---\n\n## Резюме\nТекст #боль\n"
	r := ParseReport(text)
	if r.Title != "Анализ интервью: Иван" {
		t.Errorf("title = %q", r.Title)
	}
	if len(r.Metadata) != 3 || r.Metadata[2].Key != "model" || r.Metadata[2].Value != "gpt-4o" {
		t.Errorf("metadata = %v", r.Metadata)
	}
	if r.Body != "## Резюме\nТекст #боль" {
		t.Errorf("body = %q", r.Body)
	}
	if !reflect.DeepEqual(r.Tags, []string{"#боль"}) {
		t.Errorf("tags = %v", r.Tags)
	}
}

func TestParseReport_NoSeparator(t *testing.T) {
	r := ParseReport("just text")
	if r.Body != "just text" || r.Metadata != nil || r.Title != "" {
		t.Errorf("unexpected parse: %+v", r)
	}
}
