package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		LLM:      LLMConfig{APIKey: "sk-test"},
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_MissingLLMKey(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.APIKey = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing llm key")
	}
	if err.Error() != "llm.api_key is required" {
		t.Errorf("unexpected error message: %q", err.Error())
	}
}

func TestValidate_Topics(t *testing.T) {
	tests := []struct {
		name    string
		topics  []string
		wantErr bool
	}{
		{"defaults", []string{"WORLD", "SCIENCE"}, false},
		{"lower case", []string{"world"}, true},
		{"reserved", []string{"LATEST"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.News.Topics = tt.topics

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 120 {
		t.Errorf("expected WriteTimeoutSec=120, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Storage.KeyPrefix != "quest:" {
		t.Errorf("expected KeyPrefix='quest:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.LLM.IntentModel != "gpt-3.5-turbo-0125" {
		t.Errorf("expected default intent model, got %q", cfg.LLM.IntentModel)
	}
	if cfg.LLM.SummaryModel != cfg.LLM.IntentModel {
		t.Errorf("expected summary model to follow intent model, got %q", cfg.LLM.SummaryModel)
	}
	if cfg.LLM.MaxAttempts != 5 {
		t.Errorf("expected MaxAttempts=5, got %d", cfg.LLM.MaxAttempts)
	}
	if cfg.Crawl.PageTimeoutMs != 1500 {
		t.Errorf("expected PageTimeoutMs=1500, got %d", cfg.Crawl.PageTimeoutMs)
	}
	if cfg.Providers.Brave.BaseURL != "https://api.search.brave.com" {
		t.Errorf("unexpected brave base url %q", cfg.Providers.Brave.BaseURL)
	}
	if cfg.Providers.Wikidata.Language != "en" {
		t.Errorf("expected wikidata language en, got %q", cfg.Providers.Wikidata.Language)
	}
	if len(cfg.News.Topics) != len(DefaultTopics) {
		t.Errorf("expected %d default topics, got %d", len(DefaultTopics), len(cfg.News.Topics))
	}
	if cfg.News.TopSchedule != "@every 30m" {
		t.Errorf("expected top schedule '@every 30m', got %q", cfg.News.TopSchedule)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:    HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Storage: StorageConfig{KeyPrefix: "custom:"},
		LLM:     LLMConfig{IntentModel: "gpt-4o-mini", SummaryModel: "gpt-4o"},
		News:    NewsConfig{Topics: []string{"SPORTS"}, FeedSize: 3},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Storage.KeyPrefix != "custom:" {
		t.Errorf("expected KeyPrefix='custom:', got %q", cfg.Storage.KeyPrefix)
	}
	if cfg.LLM.SummaryModel != "gpt-4o" {
		t.Errorf("expected SummaryModel=gpt-4o, got %q", cfg.LLM.SummaryModel)
	}
	if cfg.LLM.FollowUpModel != "gpt-4o-mini" {
		t.Errorf("expected FollowUpModel to follow intent model, got %q", cfg.LLM.FollowUpModel)
	}
	if len(cfg.News.Topics) != 1 || cfg.News.FeedSize != 3 {
		t.Errorf("news overrides lost: %+v", cfg.News)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("QUEST_TEST_LLM_KEY", "sk-from-env")

	data := []byte(`
http:
  port: 9000
database:
  addrs: ["${QUEST_TEST_REDIS:-localhost:6379}"]
llm:
  api_key: ${QUEST_TEST_LLM_KEY}
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.LLM.APIKey != "sk-from-env" {
		t.Errorf("expected key from env, got %q", cfg.LLM.APIKey)
	}
	if cfg.Database.Addrs[0] != "localhost:6379" {
		t.Errorf("expected default addr, got %q", cfg.Database.Addrs[0])
	}
	if cfg.HTTP.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.HTTP.Port)
	}
}
