// Package ingest reads exported review and assignment records from JSONL
// files. Malformed lines are skipped with a warning.
package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/verte-zerg/studyheat/internal/model"
)

const maxLineSize = 1 << 20

// Result reports how many lines were read and skipped.
type Result struct {
	Lines   int
	Skipped int
}

type reviewLine struct {
	CreatedAt        *int64 `json:"created_at"`
	SubjectID        int64  `json:"subject_id"`
	SRSStage         int    `json:"srs_stage"`
	IncorrectMeaning int    `json:"incorrect_meaning"`
	IncorrectReading int    `json:"incorrect_reading"`
}

type assignmentLine struct {
	SubjectID   *int64 `json:"subject_id"`
	SubjectType string `json:"subject_type"`
	Level       int    `json:"level"`
	UnlockedAt  *int64 `json:"unlocked_at"`
	StartedAt   *int64 `json:"started_at"`
	AvailableAt *int64 `json:"available_at"`
	SRSStage    int    `json:"srs_stage"`
}

// ReadReviews parses review lines. A line is either an object with
// created_at in epoch milliseconds or the compact array
// [created_at, subject_id, srs_stage, incorrect_meaning, incorrect_reading].
func ReadReviews(r io.Reader, source string) ([]model.ReviewRecord, Result, error) {
	var out []model.ReviewRecord
	res, err := scanLines(r, source, func(line []byte) error {
		rec, err := parseReview(line)
		if err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	return out, res, err
}

// ReadAssignments parses assignment lines, one object per line.
func ReadAssignments(r io.Reader, source string) ([]model.AssignmentRecord, Result, error) {
	var out []model.AssignmentRecord
	res, err := scanLines(r, source, func(line []byte) error {
		var a assignmentLine
		if err := json.Unmarshal(line, &a); err != nil {
			return err
		}
		if a.SubjectID == nil {
			return fmt.Errorf("missing subject_id")
		}
		rec := model.AssignmentRecord{
			SubjectID:   *a.SubjectID,
			SubjectType: a.SubjectType,
			Level:       a.Level,
			StartedAt:   millis(a.StartedAt),
			AvailableAt: millis(a.AvailableAt),
			SRSStage:    a.SRSStage,
		}
		if t := millis(a.UnlockedAt); t != nil {
			rec.UnlockedAt = *t
		}
		out = append(out, rec)
		return nil
	})
	return out, res, err
}

// ReadReviewsFile opens path and reads its reviews.
func ReadReviewsFile(path string) ([]model.ReviewRecord, Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, Result{}, fmt.Errorf("failed to open reviews: %w", err)
	}
	defer file.Close()
	return ReadReviews(file, path)
}

// ReadAssignmentsFile opens path and reads its assignments.
func ReadAssignmentsFile(path string) ([]model.AssignmentRecord, Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, Result{}, fmt.Errorf("failed to open assignments: %w", err)
	}
	defer file.Close()
	return ReadAssignments(file, path)
}

func parseReview(line []byte) (model.ReviewRecord, error) {
	if bytes.HasPrefix(line, []byte("[")) {
		var parts []int64
		if err := json.Unmarshal(line, &parts); err != nil {
			return model.ReviewRecord{}, err
		}
		if len(parts) < 5 {
			return model.ReviewRecord{}, fmt.Errorf("expected 5 fields, got %d", len(parts))
		}
		return model.ReviewRecord{
			Timestamp:        time.UnixMilli(parts[0]),
			SubjectID:        parts[1],
			SRSStage:         int(parts[2]),
			IncorrectMeaning: int(parts[3]),
			IncorrectReading: int(parts[4]),
		}, nil
	}
	var rl reviewLine
	if err := json.Unmarshal(line, &rl); err != nil {
		return model.ReviewRecord{}, err
	}
	if rl.CreatedAt == nil {
		return model.ReviewRecord{}, fmt.Errorf("missing created_at")
	}
	return model.ReviewRecord{
		Timestamp:        time.UnixMilli(*rl.CreatedAt),
		SubjectID:        rl.SubjectID,
		SRSStage:         rl.SRSStage,
		IncorrectMeaning: rl.IncorrectMeaning,
		IncorrectReading: rl.IncorrectReading,
	}, nil
}

func scanLines(r io.Reader, source string, fn func([]byte) error) (Result, error) {
	var res Result
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		res.Lines++
		if err := fn(line); err != nil {
			res.Skipped++
			log.Warn().Err(err).Str("source", source).Int("line", res.Lines).Msg("skipping invalid line")
		}
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("failed to read %s: %w", source, err)
	}
	log.Debug().Str("source", source).Int("lines", res.Lines).Int("skipped", res.Skipped).Msg("read records")
	return res, nil
}

func millis(v *int64) *time.Time {
	if v == nil {
		return nil
	}
	t := time.UnixMilli(*v)
	return &t
}
