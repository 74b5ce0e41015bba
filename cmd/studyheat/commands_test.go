package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/studyheat/internal/model"
	"github.com/verte-zerg/studyheat/internal/store"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(base, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(base, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(base, "state"))
	t.Setenv("STUDYHEAT_CONFIG", "")
	t.Setenv("STUDYHEAT_LOG_DIR", filepath.Join(base, "logs"))
	dbPath := filepath.Join(base, "studyheat.db")
	t.Setenv("STUDYHEAT_DB", dbPath)
	return dbPath
}

func seedReviews(t *testing.T, dbPath string, n int) {
	t.Helper()
	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	base := time.Now().Add(-time.Hour)
	reviews := make([]model.ReviewRecord, 0, n)
	for i := 0; i < n; i++ {
		reviews = append(reviews, model.ReviewRecord{Timestamp: base.Add(time.Duration(i) * time.Minute), SubjectID: int64(i + 1), SRSStage: 1})
	}
	if _, err := st.InsertReviews(context.Background(), reviews); err != nil {
		t.Fatalf("insert reviews: %v", err)
	}
}

func countReviews(t *testing.T, dbPath string) int {
	t.Helper()
	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer st.Close()
	got, err := st.ListReviews(context.Background())
	if err != nil {
		t.Fatalf("list reviews: %v", err)
	}
	return len(got)
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.Execute()
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
	if err != nil {
		t.Fatalf("%v: %v", args, err)
	}
	return out.String()
}

func TestReloadKeepsCachedReviews(t *testing.T) {
	dbPath := setupEnv(t)
	seedReviews(t, dbPath, 3)

	out := execute(t, "reload")
	if !strings.Contains(out, "3 reviews") {
		t.Fatalf("unexpected output: %q", out)
	}
	if got := countReviews(t, dbPath); got != 3 {
		t.Fatalf("expected reviews to survive reload, got %d", got)
	}
}

func TestReloadClearAndReimport(t *testing.T) {
	dbPath := setupEnv(t)
	seedReviews(t, dbPath, 3)

	execute(t, "reload", "--clear")
	if got := countReviews(t, dbPath); got != 0 {
		t.Fatalf("expected cleared cache, got %d", got)
	}

	ms := time.Now().Add(-time.Hour).UnixMilli()
	lines := []string{
		"[" + strconv.FormatInt(ms, 10) + ",1,1,0,0]",
		"[" + strconv.FormatInt(ms+60000, 10) + ",2,1,0,1]",
	}
	file := filepath.Join(t.TempDir(), "reviews.jsonl")
	if err := os.WriteFile(file, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write reviews: %v", err)
	}
	out := execute(t, "reload", "--clear", "--reviews", file)
	if !strings.Contains(out, "2 reviews") {
		t.Fatalf("unexpected output: %q", out)
	}
	if got := countReviews(t, dbPath); got != 2 {
		t.Fatalf("expected re-imported reviews, got %d", got)
	}
}
