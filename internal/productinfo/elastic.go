package productinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
)

type ESConfig struct {
	URL      string
	User     string
	Password string
	Index    string
}

// ESLookup reads product documents straight from the search index.
type ESLookup struct {
	es    *elasticsearch.Client
	index string
}

// NewESLookup connects and checks the cluster answers.
func NewESLookup(cfg ESConfig) (*ESLookup, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.User,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch error %s: %s", res.Status(), body)
	}

	return &ESLookup{es: client, index: cfg.Index}, nil
}

func (l *ESLookup) Product(ctx context.Context, id int64) (*Product, error) {
	res, err := l.es.Get(l.index, strconv.FormatInt(id, 10), l.es.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch get: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("product %d: %w", id, ErrProductNotFound)
	}
	if res.IsError() {
		return nil, fmt.Errorf("product %d: elasticsearch %s: %w", id, res.Status(), ErrProductNotFound)
	}

	var doc struct {
		Found  bool    `json:"found"`
		Source Product `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if !doc.Found {
		return nil, fmt.Errorf("product %d: %w", id, ErrProductNotFound)
	}
	if doc.Source.ID == 0 {
		doc.Source.ID = id
	}
	return &doc.Source, nil
}
