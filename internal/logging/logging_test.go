package logging_test

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podscribe/internal/logging"
)

func TestConfigureWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "podscribe.log")
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(log.LstdFlags)
	})

	logging.Configure(path)
	log.Printf("processing feed %s", "https://example.com/feed.xml")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "processing feed https://example.com/feed.xml") {
		t.Errorf("log line missing:\n%s", data)
	}
}
