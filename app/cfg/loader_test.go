package cfg

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func loadForTest(t *testing.T, args ...string) *Cfg {
	t.Helper()
	args = append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env"), "--db-path", filepath.Join(t.TempDir(), "test.db")}, args...)
	cfg, err := LoadArgs(args)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected configuration, got nil")
	}
	return cfg
}

func TestLoadArgs_Defaults(t *testing.T) {
	t.Setenv("TZ", "")
	os.Unsetenv("TZ")
	t.Setenv("SEARCH_PROVIDER", "")
	os.Unsetenv("SEARCH_PROVIDER")
	cfg := loadForTest(t)

	if cfg.JobsDir != "./jobs" {
		t.Errorf("Expected jobs dir './jobs', got '%s'", cfg.JobsDir)
	}
	if cfg.SearchProvider != "serpapi" {
		t.Errorf("Expected provider 'serpapi', got '%s'", cfg.SearchProvider)
	}
	if cfg.Timezone != "Asia/Kolkata" {
		t.Errorf("Expected timezone 'Asia/Kolkata', got '%s'", cfg.Timezone)
	}
	if cfg.Location == nil || cfg.Location.String() != "Asia/Kolkata" {
		t.Errorf("Expected Asia/Kolkata location, got %v", cfg.Location)
	}
	if cfg.PairDelayMin != 10*time.Second || cfg.PairDelayMax != 25*time.Second {
		t.Errorf("Expected pair delay 10s-25s, got %v-%v", cfg.PairDelayMin, cfg.PairDelayMax)
	}
	if cfg.MinContentLength != 50 {
		t.Errorf("Expected min content length 50, got %d", cfg.MinContentLength)
	}
	if cfg.SMTPPort != 587 {
		t.Errorf("Expected SMTP port 587, got %d", cfg.SMTPPort)
	}
	if cfg.Once {
		t.Error("Expected once mode to be off by default")
	}
}

func TestLoadArgs_CommaSeparatedCredentials(t *testing.T) {
	t.Setenv("SERPAPI_KEYS", "k1, k2,,k3")
	t.Setenv("DIFFBOT_TOKENS", "t1")

	cfg := loadForTest(t)

	expected := []string{"k1", "k2", "k3"}
	if len(cfg.SerpAPIKeys) != len(expected) {
		t.Fatalf("Expected %d keys, got %v", len(expected), cfg.SerpAPIKeys)
	}
	for i, key := range expected {
		if cfg.SerpAPIKeys[i] != key {
			t.Errorf("Expected key %d to be %s, got %s", i, key, cfg.SerpAPIKeys[i])
		}
	}
	if len(cfg.DiffbotTokens) != 1 || cfg.DiffbotTokens[0] != "t1" {
		t.Errorf("Expected single token t1, got %v", cfg.DiffbotTokens)
	}
}

func TestLoadArgs_NumberedCredentials(t *testing.T) {
	t.Setenv("SERPAPI_KEYS", "")
	t.Setenv("SERPAPI_KEY1", "n1")
	t.Setenv("SERPAPI_KEY2", "")
	t.Setenv("SERPAPI_KEY3", "n3")
	t.Setenv("DIFFBOT_TOKEN1", "d1")
	t.Setenv("DIFFBOT_TOKENS", "d1,d2")

	cfg := loadForTest(t)

	if len(cfg.SerpAPIKeys) != 2 || cfg.SerpAPIKeys[0] != "n1" || cfg.SerpAPIKeys[1] != "n3" {
		t.Errorf("Expected numbered keys [n1 n3], got %v", cfg.SerpAPIKeys)
	}
	if len(cfg.DiffbotTokens) != 2 {
		t.Errorf("Expected duplicate tokens to be merged, got %v", cfg.DiffbotTokens)
	}
}

func TestLoadArgs_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envFile, []byte("SEARCH_PROVIDER=gnews-rss\nNEWS_REGION=us\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SEARCH_PROVIDER", "")
	os.Unsetenv("SEARCH_PROVIDER")
	t.Setenv("NEWS_REGION", "")
	os.Unsetenv("NEWS_REGION")

	cfg, err := LoadArgs([]string{"--env-file=" + envFile, "--db-path", filepath.Join(dir, "test.db")})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.SearchProvider != "gnews-rss" {
		t.Errorf("Expected provider from env file, got '%s'", cfg.SearchProvider)
	}
	if cfg.Region != "us" {
		t.Errorf("Expected region from env file, got '%s'", cfg.Region)
	}
}

func TestLoadArgs_OnceWithJobs(t *testing.T) {
	cfg := loadForTest(t, "--once", "--job", "founder", "--job", "new_member")

	if !cfg.Once {
		t.Error("Expected once mode")
	}
	if len(cfg.Jobs) != 2 || cfg.Jobs[0] != "founder" || cfg.Jobs[1] != "new_member" {
		t.Errorf("Expected jobs [founder new_member], got %v", cfg.Jobs)
	}
}

func TestLoadArgs_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "bad timezone", args: []string{"--timezone", "Mars/Olympus"}},
		{name: "inverted delay", args: []string{"--pair-delay-min", "30", "--pair-delay-max", "10"}},
		{name: "zero interval", args: []string{"--scheduler-interval", "0"}},
		{name: "bad provider", args: []string{"--search-provider", "bing"}},
		{name: "bad smtp port", args: []string{"--smtp-port", "70000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env"), "--db-path", filepath.Join(t.TempDir(), "x.db")}, tt.args...)
			if _, err := LoadArgs(args); err == nil {
				t.Error("Expected configuration error")
			}
		})
	}
}

func TestMergeCredentials(t *testing.T) {
	merged := mergeCredentials([]string{" a ", "b"}, []string{"b", "", "c"})

	expected := []string{"a", "b", "c"}
	if len(merged) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, merged)
	}
	for i := range expected {
		if merged[i] != expected[i] {
			t.Errorf("Expected %s at %d, got %s", expected[i], i, merged[i])
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := NewLogger(&Cfg{LogJSON: true}, &buf)
	logger.Debug("hidden")
	logger.Info("Task completed", "type", "RunJob")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("Expected debug output to be suppressed")
	}
	if !strings.Contains(buf.String(), `"type":"RunJob"`) {
		t.Errorf("Expected JSON output, got %q", buf.String())
	}

	buf.Reset()
	NewLogger(&Cfg{Debug: true}, &buf).Debug("visible")
	if !strings.Contains(buf.String(), "msg=visible") {
		t.Errorf("Expected text debug output, got %q", buf.String())
	}
}

func TestLoadArgs_ReturnsIndependentConfigs(t *testing.T) {
	first := loadForTest(t, "--port", "9000")
	second := loadForTest(t, "--port", "9001")

	if first == second {
		t.Fatal("Expected each load to return its own configuration")
	}
	if first.Port != "9000" || second.Port != "9001" {
		t.Errorf("Expected ports 9000 and 9001, got %s and %s", first.Port, second.Port)
	}
}
