package mcpserver

// MasterFormatURI is the resource URI of the master document format.
const MasterFormatURI = "insights://master-format"

// MasterFormatContract describes the layout of the master insights document
// and of the per-interview reports, for LLM consumers that read or write them.
const MasterFormatContract = `# Insights Document Format

The insights directory holds one cumulative master document and one report
per analysed interview. Both are UTF-8 Markdown.

## Master document (` + "`" + `master_insights.md` + "`" + `)

` + "```" + `markdown
# Накопленные инсайты из интервью

## Метаданные
- Всего проанализировано интервью: 3
- Последнее обновление: 2025-03-14
- Дата создания базы: 2025-03-01

## Ключевые темы
...

---

## Инсайты из интервью: Иван Петров
_Дата добавления: 2025-03-14_

<analysis text, verbatim>
` + "```" + `

## Rules

1. **Metadata fields are parsed literally.** The count follows
   ` + "`" + `Всего проанализировано интервью: ` + "`" + ` and the date follows
   ` + "`" + `Последнее обновление: ` + "`" + `. Only the first occurrence of each is read or
   rewritten. A missing field reads as 0 / ` + "`" + `не проводилось` + "`" + `.
2. **Entries are appended, never merged.** Each analysis is added after a
   ` + "`" + `---` + "`" + ` separator with a header naming the respondent and the date.
3. **Tags** are ` + "`" + `#word` + "`" + ` tokens anywhere in the text. They are compared
   case-insensitively; the first spelling seen is reported.
4. **Overwrites replace the whole file.** There is no locking; the last writer wins.

## Report files (` + "`" + `reports/<respondent>_<YYYYMMDD_HHMMSS>.md` + "`" + `)

` + "```" + `markdown
# Анализ интервью: Иван Петров

## Метаданные
- Респондент: Иван Петров
- Дата анализа: 2025-03-14 10:30:00
- analysis_id: 01JPA6X0Z8Q6S7T0K1M2N3P4R5
- word_count: 1500
- tokens_used: 2400
- model: gpt-4o
- banks: ВТБ, Сбербанк

---

<analysis text, verbatim>
` + "```" + `

The respondent part of the filename keeps letters, digits, underscores and
hyphens; runs of spaces and hyphens become one hyphen. Lookups by respondent
compare that key case-insensitively.
`
