// internal/common/database/elasticsearch.go
package database

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"nlq-workers/internal/common/config"
)

var ErrJournalDisabled = errors.New("translation journal disabled")

// ElasticsearchClient wraps the Elasticsearch client
type ElasticsearchClient struct {
	Client *elasticsearch.Client
}

// NewElasticsearch creates a new Elasticsearch client
func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
	}
	if len(esCfg.Addresses) == 0 && cfg.GetURL() != "" {
		esCfg.Addresses = []string{cfg.GetURL()}
	}

	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	return &ElasticsearchClient{Client: es}, nil
}

// Ping tests the Elasticsearch connection
func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := c.Client.Ping(
		c.Client.Ping.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}

	return nil
}

// JournalEntry is one translation as stored in the journal index.
type JournalEntry struct {
	ID             string                 `json:"id"`
	Text           string                 `json:"text"`
	Table          string                 `json:"table"`
	Intent         string                 `json:"intent"`
	SQL            string                 `json:"sql"`
	Source         string                 `json:"source"`
	Entities       map[string]string      `json:"entities,omitempty"`
	Range          map[string]interface{} `json:"range,omitempty"`
	PatternVersion string                 `json:"patternVersion"`
	Rejected       string                 `json:"rejected,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
}

// Journal appends translations to an index so operators can audit what was generated.
type Journal struct {
	client *elasticsearch.Client
	index  string
}

func NewJournal(client *elasticsearch.Client, index string) *Journal {
	return &Journal{client: client, index: index}
}

// Record indexes entry under its ID. A nil journal is disabled.
func (j *Journal) Record(ctx context.Context, entry JournalEntry) error {
	if j == nil || j.client == nil {
		return ErrJournalDisabled
	}
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      j.index,
		DocumentID: entry.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, j.client)
	if err != nil {
		return fmt.Errorf("index journal entry: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index journal entry: %s", res.Status())
	}
	return nil
}

// Recent returns the newest entries, optionally restricted to one table.
func (j *Journal) Recent(ctx context.Context, table string, size int) ([]JournalEntry, error) {
	if j == nil || j.client == nil {
		return nil, ErrJournalDisabled
	}
	if size <= 0 {
		size = 10
	}

	query := map[string]interface{}{"match_all": map[string]interface{}{}}
	if table != "" {
		query = map[string]interface{}{
			"term": map[string]interface{}{"table.keyword": table},
		}
	}
	body, _ := json.Marshal(map[string]interface{}{
		"query": query,
		"sort":  []interface{}{map[string]interface{}{"createdAt": map[string]interface{}{"order": "desc"}}},
	})

	req := esapi.SearchRequest{
		Index: []string{j.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}
	res, err := req.Do(ctx, j.client)
	if err != nil {
		return nil, fmt.Errorf("search journal: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search journal: %s: %s", res.Status(), msg)
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source JournalEntry `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode journal hits: %w", err)
	}

	out := make([]JournalEntry, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
