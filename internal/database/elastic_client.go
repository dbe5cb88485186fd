package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/olivere/elastic/v7"

	"github.com/locvowork/bikestore_reports/internal/domain"
)

const runHistoryMapping = `{
	"mappings": {
		"properties": {
			"id":            {"type": "keyword"},
			"started_at":    {"type": "date"},
			"finished_at":   {"type": "date"},
			"duration_ms":   {"type": "long"},
			"status":        {"type": "keyword"},
			"error":         {"type": "text"},
			"workbook_path": {"type": "keyword"},
			"sheets":        {"type": "integer"},
			"rows":          {"type": "integer"},
			"csv_files":     {"type": "keyword"},
			"charts":        {"type": "keyword"},
			"revenue_total": {"type": "double"},
			"revenue_mean":  {"type": "double"},
			"revenue_median": {"type": "double"}
		}
	}
}`

// ElasticSearchClient stores report run summaries in an Elasticsearch 7.x index.
type ElasticSearchClient struct {
	client *elastic.Client
	index  string
}

// NewElasticSearchClient creates a client for the run history index at url.
func NewElasticSearchClient(url, index string) (*ElasticSearchClient, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(url),
		elastic.SetSniff(false), // Essential when using Docker or cloud
		elastic.SetHealthcheck(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	return &ElasticSearchClient{client: client, index: index}, nil
}

// EnsureIndex creates the run history index with its mapping when missing.
func (es *ElasticSearchClient) EnsureIndex(ctx context.Context) error {
	exists, err := es.client.IndexExists(es.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check index %s: %w", es.index, err)
	}
	if exists {
		return nil
	}

	if _, err := es.client.CreateIndex(es.index).BodyString(runHistoryMapping).Do(ctx); err != nil {
		return fmt.Errorf("failed to create index %s: %w", es.index, err)
	}
	return nil
}

// Record indexes a run summary using the run ID as document ID.
func (es *ElasticSearchClient) Record(ctx context.Context, run *domain.ReportRun) error {
	_, err := es.client.Index().
		Index(es.index).
		Id(run.ID).
		BodyJson(run).
		Refresh("true"). // Make changes immediately searchable
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to index run %s: %w", run.ID, err)
	}
	return nil
}

// Get retrieves a run summary by ID.
func (es *ElasticSearchClient) Get(ctx context.Context, id string) (*domain.ReportRun, error) {
	result, err := es.client.Get().
		Index(es.index).
		Id(id).
		Do(ctx)
	if elastic.IsNotFound(err) {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}

	if !result.Found {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrRunNotFound)
	}

	var run domain.ReportRun
	if err := json.Unmarshal(result.Source, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run %s: %w", id, err)
	}

	return &run, nil
}

// Recent returns the latest runs, newest first.
func (es *ElasticSearchClient) Recent(ctx context.Context, size int) ([]domain.ReportRun, error) {
	searchResult, err := es.client.Search().
		Index(es.index).
		Query(elastic.NewMatchAllQuery()).
		Sort("started_at", false).
		Size(size).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	runs := make([]domain.ReportRun, 0, len(searchResult.Hits.Hits))
	for _, hit := range searchResult.Hits.Hits {
		var run domain.ReportRun
		if err := json.Unmarshal(hit.Source, &run); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run %s: %w", hit.Id, err)
		}
		runs = append(runs, run)
	}

	return runs, nil
}
