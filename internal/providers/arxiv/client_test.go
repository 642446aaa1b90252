package arxiv

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholaris/paper-discovery-service/internal/domain"
	"github.com/scholaris/paper-discovery-service/internal/providers"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/">
  <opensearch:totalResults>42</opensearch:totalResults>
  <opensearch:startIndex>0</opensearch:startIndex>
  <opensearch:itemsPerPage>2</opensearch:itemsPerPage>
  <entry>
    <id>http://arxiv.org/abs/2301.01234v2</id>
    <title>Deep Learning for
        Paper     Discovery</title>
    <summary>
      We present a method for discovering
      relevant papers.
    </summary>
    <published>2023-01-15T18:30:00Z</published>
    <author><name>Jane Doe</name></author>
    <author><name>John Smith</name></author>
    <category term="cs.LG"/>
    <category term="cs.IR"/>
    <link href="http://arxiv.org/abs/2301.01234v2" rel="alternate" type="text/html"/>
    <link href="http://arxiv.org/pdf/2301.01234v2" rel="related" type="application/pdf" title="pdf"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2302.09999v1</id>
    <title>Another Paper</title>
    <summary>Abstract text.</summary>
    <published>2023-02-20T10:00:00Z</published>
    <author><name>Alice Johnson</name></author>
    <category term="cs.CL"/>
  </entry>
</feed>`

func newTestClient(baseURL string) *Client {
	return New(Config{
		BaseURL:   baseURL,
		Enabled:   true,
		RateLimit: 100,
		BurstSize: 10,
	})
}

func TestNew(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		client := New(Config{Enabled: true})

		require.NotNil(t, client)
		assert.Equal(t, DefaultBaseURL, client.config.BaseURL)
		assert.Equal(t, DefaultRateLimit, client.config.RateLimit)
		assert.Equal(t, DefaultMaxResults, client.config.MaxResults)
	})

	t.Run("implements Provider interface", func(t *testing.T) {
		client := New(Config{Enabled: true})

		assert.Equal(t, domain.SourceTypeArXiv, client.SourceType())
		assert.Equal(t, "arXiv", client.Name())
		assert.True(t, client.IsEnabled())
	})
}

func TestClient_Search(t *testing.T) {
	t.Run("parses Atom feed into canonical papers", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/query", r.URL.Path)
			assert.Equal(t, "all:machine learning", r.URL.Query().Get("search_query"))
			assert.Equal(t, "10", r.URL.Query().Get("max_results"))

			w.Header().Set("Content-Type", "application/atom+xml")
			fmt.Fprint(w, sampleFeed)
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		result, err := client.Search(context.Background(), providers.SearchParams{
			Query:      "machine learning",
			MaxResults: 10,
		})

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, 42, result.TotalResults)
		assert.True(t, result.HasMore)
		assert.Equal(t, 2, result.NextOffset)
		assert.Equal(t, domain.SourceTypeArXiv, result.Source)

		require.Len(t, result.Papers, 2)

		paper1 := result.Papers[0]
		assert.Equal(t, "2301.01234", paper1.ID)
		assert.Equal(t, "2301.01234", paper1.ArxivID)
		assert.Equal(t, "Deep Learning for Paper Discovery", paper1.Title)
		assert.Equal(t, "We present a method for discovering relevant papers.", paper1.Abstract)
		assert.Equal(t, []string{"Jane Doe", "John Smith"}, paper1.Authors)
		assert.Equal(t, []string{"cs.LG", "cs.IR"}, paper1.Categories)
		require.NotNil(t, paper1.PublishedDate)
		assert.Equal(t, "2023-01-15", paper1.PublishedDate.Format("2006-01-02"))
		assert.Equal(t, "http://arxiv.org/pdf/2301.01234v2", paper1.URL)

		// Second entry has no PDF link, so the fallback URL is used.
		paper2 := result.Papers[1]
		assert.Equal(t, "2302.09999", paper2.ID)
		assert.Equal(t, "http://arxiv.org/pdf/2302.09999", paper2.URL)
	})

	t.Run("passes fielded queries through unchanged", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "cat:cs.LG AND all:transformers", r.URL.Query().Get("search_query"))
			fmt.Fprint(w, sampleFeed)
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.Search(context.Background(), providers.SearchParams{
			Query: "cat:cs.LG AND all:transformers",
		})
		require.NoError(t, err)
	})

	t.Run("sets start parameter for pagination", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "20", r.URL.Query().Get("start"))
			fmt.Fprint(w, sampleFeed)
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		_, err := client.Search(context.Background(), providers.SearchParams{
			Query:  "test",
			Offset: 20,
		})
		require.NoError(t, err)
	})

	t.Run("returns external API error on failure status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, "malformed query")
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		result, err := client.Search(context.Background(), providers.SearchParams{Query: "test"})

		require.Error(t, err)
		assert.Nil(t, result)

		var apiErr *domain.ExternalAPIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Equal(t, "arXiv", apiErr.Source)
	})
}

func TestClient_GetByID(t *testing.T) {
	t.Run("returns paper for known ID", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "2301.01234", r.URL.Query().Get("id_list"))
			fmt.Fprint(w, sampleFeed)
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		paper, err := client.GetByID(context.Background(), "2301.01234")

		require.NoError(t, err)
		assert.Equal(t, "2301.01234", paper.ID)
		assert.Equal(t, "Deep Learning for Paper Discovery", paper.Title)
	})

	t.Run("returns not found for empty feed", func(t *testing.T) {
		emptyFeed := `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <totalResults>0</totalResults>
</feed>`
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, emptyFeed)
		}))
		defer server.Close()

		client := newTestClient(server.URL)

		paper, err := client.GetByID(context.Background(), "9999.99999")

		require.Error(t, err)
		assert.Nil(t, paper)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestExtractArXivID(t *testing.T) {
	tests := []struct {
		name     string
		entryURL string
		want     string
	}{
		{"modern ID with version", "http://arxiv.org/abs/2301.12345v1", "2301.12345"},
		{"modern ID without version", "http://arxiv.org/abs/2301.12345", "2301.12345"},
		{"legacy ID with version", "http://arxiv.org/abs/hep-th/9901001v2", "hep-th/9901001"},
		{"https scheme", "https://arxiv.org/abs/2405.00001v3", "2405.00001"},
		{"not an arxiv URL", "http://example.com/abs/foo", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractArXivID(tt.entryURL))
		})
	}
}

func TestQuery_String(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{"empty", Query{}, ""},
		{"all only", Query{All: "transformers"}, "all:transformers"},
		{"category only", Query{Category: "cs.LG"}, "cat:cs.LG"},
		{
			"all fields",
			Query{Title: "attention", Author: "vaswani", Abstract: "transduction", Category: "cs.CL", All: "nlp"},
			"ti:attention AND au:vaswani AND abs:transduction AND cat:cs.CL AND all:nlp",
		},
		{"category and all", Query{Category: "cs.LG", All: "diffusion"}, "cat:cs.LG AND all:diffusion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.String())
			assert.Equal(t, tt.want == "", tt.query.IsEmpty())
		})
	}
}
