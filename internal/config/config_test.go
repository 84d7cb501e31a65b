package config

import "testing"

func validConfig() Config {
	return Config{
		HTTP: HTTPConfig{Port: 8080},
		Search: SearchConfig{
			Endpoint: "https://search.example.net",
			APIKey:   "test-key",
			Index:    "html-dev-index",
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingSearchEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Search.Endpoint = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing search endpoint")
	}
}

func TestValidate_NonHTTPEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Search.Endpoint = "search.example.net"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for endpoint without scheme")
	}
}

func TestValidate_MissingAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.Search.APIKey = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestValidate_MissingIndex(t *testing.T) {
	cfg := validConfig()
	cfg.Search.Index = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing index name")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Search.APIVersion != "2023-11-01" {
		t.Errorf("expected default api version, got %q", cfg.Search.APIVersion)
	}
	if cfg.Search.PDFIndex != "pdf-search-index" {
		t.Errorf("expected default pdf index, got %q", cfg.Search.PDFIndex)
	}
	if cfg.Search.MaxResults != 150 {
		t.Errorf("expected MaxResults=150, got %d", cfg.Search.MaxResults)
	}
	if cfg.Search.EmptyQueryMaxResults != 1000 {
		t.Errorf("expected EmptyQueryMaxResults=1000, got %d", cfg.Search.EmptyQueryMaxResults)
	}
	if cfg.Storage.Containers.HTML != "htmlcontent" {
		t.Errorf("expected default html container, got %q", cfg.Storage.Containers.HTML)
	}
	if cfg.Storage.Containers.FilesMaster != "evidencefiles-master" {
		t.Errorf("expected default files master container, got %q", cfg.Storage.Containers.FilesMaster)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := Config{}
	cfg.Search.MaxResults = 20
	cfg.Storage.Containers.Files = "uploads"
	cfg.ApplyDefaults()

	if cfg.Search.MaxResults != 20 {
		t.Errorf("explicit MaxResults overwritten: %d", cfg.Search.MaxResults)
	}
	if cfg.Storage.Containers.Files != "uploads" {
		t.Errorf("explicit container overwritten: %q", cfg.Storage.Containers.Files)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("SEARCH_ADMIN_KEY", "secret")

	in := []byte("api_key: ${SEARCH_ADMIN_KEY}\npdf_index: ${PDF_SEARCH_INDEX_NAME:-pdf-search-index}\n")
	out := string(expandEnvVars(in))

	want := "api_key: secret\npdf_index: pdf-search-index\n"
	if out != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", out, want)
	}
}

func TestExpandEnvVars_UnsetWithoutDefault(t *testing.T) {
	in := []byte("endpoint: ${SEARCHGW_TEST_UNSET_VAR}")
	out := string(expandEnvVars(in))

	if out != "endpoint: " {
		t.Errorf("expected empty substitution, got %q", out)
	}
}
