package patterns

import "nlq-workers/internal/models"

// DefaultVersion identifies the built-in vocabulary. Bump it whenever a list below changes.
const DefaultVersion = "2024.06.1"

var defaultStopwords = []string{
	"the", "is", "at", "which", "on", "a", "an", "and", "or", "in", "to", "of", "for",
	"with", "by", "as", "from", "that", "this", "it", "be", "are", "was", "were", "has",
	"have", "had", "but", "not", "so", "if", "then", "than", "when", "while", "about",
	"into", "over", "after", "before", "between", "during", "out", "up", "down", "off",
	"above", "below", "under", "again", "further", "once",
}

// Multi-word keywords are kept for vocabulary parity even though single tokens never equal them.
var defaultIntents = []IntentPattern{
	{Intent: models.IntentRetrieve, Keywords: []string{"show", "list", "get", "display", "find", "search", "query", "select", "retrieve", "fetch", "give", "details", "about"}},
	{Intent: models.IntentCount, Keywords: []string{"count", "how many", "total", "sum", "number of"}},
	{Intent: models.IntentFilter, Keywords: []string{"where", "with", "filter", "having", "contain", "match", "from", "to", "between"}},
	{Intent: models.IntentSort, Keywords: []string{"sort", "order", "arrange", "rank"}},
	{Intent: models.IntentLimit, Keywords: []string{"limit", "top", "first", "last", "recent"}},
}

var defaultTables = []string{
	models.TableAuditLog,
	models.TableInventoryItem,
	models.TableInventorySection,
	models.TableStockTransaction,
}

var defaultFieldSynonyms = []TableSynonyms{
	{Table: models.TableInventoryItem, Fields: []FieldSynonyms{
		{Field: "name", Synonyms: []string{"name", "title", "label", "item name", "product name"}},
		{Field: "quantity", Synonyms: []string{"quantity", "amount", "count", "number", "stock"}},
		{Field: "location", Synonyms: []string{"location", "place", "where", "position", "stored"}},
		{Field: "sku", Synonyms: []string{"sku", "code", "item code", "product code", "id code"}},
		{Field: "createdAt", Synonyms: []string{"created", "creation date", "date created", "when created"}},
	}},
	{Table: models.TableInventorySection, Fields: []FieldSynonyms{
		{Field: "name", Synonyms: []string{"name", "section name", "category", "group"}},
		{Field: "description", Synonyms: []string{"description", "details", "info", "about"}},
	}},
	{Table: models.TableAuditLog, Fields: []FieldSynonyms{
		{Field: "action", Synonyms: []string{"action", "activity", "operation", "event"}},
		{Field: "userId", Synonyms: []string{"user", "user id", "person", "who"}},
		{Field: "timestamp", Synonyms: []string{"time", "date", "when", "timestamp", "occurred", "happened"}},
		{Field: "details", Synonyms: []string{"details", "information", "data", "description"}},
	}},
	{Table: models.TableStockTransaction, Fields: []FieldSynonyms{
		{Field: "type", Synonyms: []string{"type", "transaction type", "kind"}},
		{Field: "quantity", Synonyms: []string{"quantity", "amount", "count", "number"}},
		{Field: "itemId", Synonyms: []string{"item", "product", "item id"}},
		{Field: "timestamp", Synonyms: []string{"time", "date", "when", "timestamp"}},
	}},
}

var defaultDatePatterns = []string{
	`\d{4}-\d{1,2}-\d{1,2}`,
	`\d{1,2}/\d{1,2}/\d{4}`,
	`(?i)\d{1,2}(st|nd|rd|th)?\s+(January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{4}`,
	`(?i)\d{1,2}\s+(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{4}`,
}

// The 24-hour form is listed first, so a 12-hour literal resolves to its bare H:MM part.
var defaultTimePatterns = []string{
	`\d{1,2}:\d{2}(?::\d{2})?`,
	`(?i)\d{1,2}:\d{2}(?::\d{2})?\s*(AM|PM)`,
}

var defaultRangePatterns = []string{
	`(?i)from\s+(.*?)\s+to\s+(.*?)(\.|$)`,
	`(?i)between\s+(.*?)\s+and\s+(.*?)(\.|$)`,
}

// Matched as plain substrings of the raw text, case-sensitively.
var defaultFilterTriggers = []string{
	"where", "with", "filter", "having", "contain", "match", "from", "to", "between",
}

const defaultWherePattern = `(?i)where\s+(\w+)\s*(=|is|>|<|>=|<=|!=)\s*(["'\w\s]+)`

var defaultTimestampColumns = []string{"timestamp", "createdat", "updatedat", "date", "datetime"}

// Default returns the built-in library.
func Default() *Library {
	lib, err := build(Definition{
		Version:          DefaultVersion,
		Stopwords:        defaultStopwords,
		Intents:          defaultIntents,
		Tables:           defaultTables,
		FieldSynonyms:    defaultFieldSynonyms,
		DatePatterns:     defaultDatePatterns,
		TimePatterns:     defaultTimePatterns,
		RangePatterns:    defaultRangePatterns,
		FilterTriggers:   defaultFilterTriggers,
		WherePattern:     defaultWherePattern,
		TimestampColumns: defaultTimestampColumns,
	})
	if err != nil {
		panic("patterns: built-in vocabulary does not compile: " + err.Error())
	}
	return lib
}
