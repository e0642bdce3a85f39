package news

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rehmatsg/quest-search-public-api/internal/domain"
	domarticle "github.com/rehmatsg/quest-search-public-api/internal/domain/article"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/geo"
)

func TestTopics(t *testing.T) {
	f := NewFeed(&mockStore{}, nil, nil, FeedConfig{Topics: []string{"WORLD", "SPORTS"}}, nil)
	got := f.Topics()
	if strings.Join(got, ",") != "WORLD,SPORTS,LATEST" {
		t.Errorf("topics = %v", got)
	}
	got[0] = "CHANGED"
	if f.Topics()[0] != "WORLD" {
		t.Error("Topics must return a copy")
	}
}

func TestByTopic(t *testing.T) {
	store := &mockStore{listFn: func(_ context.Context, topic string, limit int) ([]*domarticle.Article, error) {
		if topic != "SCIENCE" || limit != 10 {
			t.Errorf("ListByTopic(%q, %d)", topic, limit)
		}
		return []*domarticle.Article{{ID: "a1"}}, nil
	}}
	f := NewFeed(store, nil, nil, FeedConfig{}, nil)

	got, err := f.ByTopic(context.Background(), " science ")
	if err != nil {
		t.Fatalf("ByTopic: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a1" {
		t.Errorf("articles = %v", got)
	}
}

func TestByTopic_Unknown(t *testing.T) {
	f := NewFeed(&mockStore{}, nil, nil, FeedConfig{}, nil)
	if _, err := f.ByTopic(context.Background(), "gossip"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDigest(t *testing.T) {
	var mu sync.Mutex
	asked := map[string]bool{}
	store := &mockStore{listFn: func(_ context.Context, topic string, _ int) ([]*domarticle.Article, error) {
		mu.Lock()
		asked[topic] = true
		mu.Unlock()
		if topic == "WORLD" {
			return []*domarticle.Article{{ID: "w1", Topic: "WORLD"}}, nil
		}
		return nil, nil
	}}
	loc := &mockLocator{loc: &geo.Geolocation{City: "Springfield", Latitude: geo.Float(1), Longitude: geo.Float(2)}}
	weather := &mockWeather{doc: json.RawMessage(`{"name":"Springfield"}`)}
	f := NewFeed(store, loc, weather, FeedConfig{Topics: []string{"WORLD", "SPORTS"}}, nil)

	d, err := f.Digest(context.Background(), "1.2.3.4")
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if len(asked) != 3 || !asked["LATEST"] {
		t.Errorf("topics asked = %v", asked)
	}

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		News    map[string][]map[string]any `json:"news"`
		Weather map[string]any              `json:"weather"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.News["WORLD"]) != 1 || doc.News["SPORTS"] == nil || len(doc.News["SPORTS"]) != 0 {
		t.Errorf("news = %v", doc.News)
	}
	if doc.Weather["name"] != "Springfield" {
		t.Errorf("weather = %v", doc.Weather)
	}
}

func TestDigest_WeatherFailureIsNull(t *testing.T) {
	store := &mockStore{listFn: func(context.Context, string, int) ([]*domarticle.Article, error) {
		return nil, nil
	}}
	f := NewFeed(store, &mockLocator{err: errors.New("no geo")}, &mockWeather{}, FeedConfig{}, nil)

	d, err := f.Digest(context.Background(), "1.2.3.4")
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	data, _ := json.Marshal(d)
	if !strings.Contains(string(data), `"weather":null`) {
		t.Errorf("digest = %s", data)
	}
}

func TestDigest_StoreError(t *testing.T) {
	store := &mockStore{listFn: func(_ context.Context, topic string, _ int) ([]*domarticle.Article, error) {
		if topic == "HEALTH" {
			return nil, errors.New("connection reset")
		}
		return nil, nil
	}}
	f := NewFeed(store, nil, nil, FeedConfig{}, nil)
	if _, err := f.Digest(context.Background(), ""); err == nil {
		t.Fatal("expected error")
	}
}
