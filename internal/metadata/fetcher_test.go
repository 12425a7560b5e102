package metadata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ringops/ringstats/internal/catalog"
	"github.com/ringops/ringstats/internal/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	zap.ReplaceGlobals(zap.NewExample())
	m.Run()
}

func id(seq int) catalog.ItemID {
	return catalog.NewItemID("100000000667", seq)
}

func newMetadataServer(t *testing.T, docs map[string]string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		key := strings.TrimPrefix(r.URL.Path, "/api/genso_v2_metadata/")
		body, ok := docs[key]
		switch {
		case !ok:
			http.NotFound(w, r)
		case body == "500":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte(body))
		}
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func newTestFetcher(baseURL string) *DefaultFetcher {
	client := NewClient(httpclient.NewHTTPClient(httpclient.Options{Timeout: time.Second}), baseURL+"/api/genso_v2_metadata")
	return NewFetcher(client)
}

func TestClient_Get(t *testing.T) {
	server, _ := newMetadataServer(t, map[string]string{
		id(1).String(): `{"name":"Ring of Life","attributes":[{"trait_type":"hp","value":120}]}`,
		id(2).String(): "500",
	})
	client := NewClient(httpclient.NewHTTPClient(httpclient.Options{Timeout: time.Second}), server.URL+"/api/genso_v2_metadata/")
	ctx := context.Background()

	doc, err := client.Get(ctx, id(1))
	require.NoError(t, err)
	assert.Equal(t, "Ring of Life", doc.Name)
	require.Len(t, doc.Attributes, 1)
	assert.Equal(t, json.Number("120"), doc.Attributes[0].Value)

	_, err = client.Get(ctx, id(2))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotMinted)

	_, err = client.Get(ctx, id(3))
	assert.ErrorIs(t, err, ErrNotMinted)
}

func TestFetchMetadata_StopsAtEmptyDocument(t *testing.T) {
	server, calls := newMetadataServer(t, map[string]string{
		id(1).String(): `{"name":"A","attributes":[{"trait_type":"level","value":3},{"trait_type":"hp","value":100}]}`,
		id(2).String(): `{"name":"B","attributes":[{"trait_type":"level","value":null},{"trait_type":"hp","value":null},{"trait_type":"rarity","value":"common"}]}`,
		id(3).String(): `{"name":"C","attributes":[{"trait_type":"hp","value":90}]}`,
	})

	records := newTestFetcher(server.URL).FetchMetadata(context.Background(), []catalog.ItemID{id(1), id(2), id(3)})

	require.Len(t, records, 1)
	assert.Equal(t, id(1), records[0].ItemID)
	assert.Equal(t, "A", records[0].Name)
	assert.Equal(t, map[string]string{"level": "3", "hp": "100"}, records[0].Stats)
	assert.EqualValues(t, 2, atomic.LoadInt32(calls))
}

func TestFetchMetadata_SkipsMissingAndFailing(t *testing.T) {
	server, _ := newMetadataServer(t, map[string]string{
		id(2).String(): "500",
		id(3).String(): `{"name":"C","attributes":[{"trait_type":"hp","value":90}]}`,
	})

	records := newTestFetcher(server.URL).FetchMetadata(context.Background(), []catalog.ItemID{id(1), id(2), id(3)})

	require.Len(t, records, 1)
	assert.Equal(t, id(3), records[0].ItemID)
}

func TestFetchMetadata_Cancelled(t *testing.T) {
	server, calls := newMetadataServer(t, map[string]string{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := newTestFetcher(server.URL).FetchMetadata(ctx, []catalog.ItemID{id(1), id(2)})

	assert.Empty(t, records)
	assert.EqualValues(t, 0, atomic.LoadInt32(calls))
}

func TestToRecord(t *testing.T) {
	t.Run("level placeholders", func(t *testing.T) {
		for _, level := range []interface{}{nil, json.Number("0"), "-", ""} {
			doc := &Document{Attributes: []Attribute{
				{TraitType: "level", Value: level},
				{TraitType: "hp", Value: json.Number("1")},
			}}
			record, populated := ToRecord(id(1), doc)
			assert.True(t, populated)
			assert.Equal(t, "-", record.Stats["level"], "level %v", level)
		}
	})

	t.Run("filters to allow-list", func(t *testing.T) {
		doc := &Document{Name: "X", Attributes: []Attribute{
			{TraitType: "hp", Value: json.Number("12")},
			{TraitType: "image", Value: "https://example.com/x.png"},
			{TraitType: "exp_get_rate", Value: json.Number("1.50")},
		}}
		record, populated := ToRecord(id(1), doc)
		assert.True(t, populated)
		assert.Equal(t, map[string]string{"hp": "12", "exp_get_rate": "1.5"}, record.Stats)
	})

	t.Run("zero level alone still counts as populated", func(t *testing.T) {
		doc := &Document{Attributes: []Attribute{{TraitType: "level", Value: json.Number("0")}}}
		_, populated := ToRecord(id(1), doc)
		assert.True(t, populated)
	})

	t.Run("no allow-listed attributes", func(t *testing.T) {
		doc := &Document{Attributes: []Attribute{{TraitType: "rarity", Value: "rare"}}}
		_, populated := ToRecord(id(1), doc)
		assert.False(t, populated)
	})
}

func TestValueString(t *testing.T) {
	cases := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"abc", "abc"},
		{json.Number("42"), "42"},
		{json.Number("2.0"), "2"},
		{json.Number("0.125"), "0.125"},
		{json.Number("1e21"), "1000000000000000000000"},
		{float64(3.5), "3.5"},
		{true, "true"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ValueString(tc.in))
	}
}
