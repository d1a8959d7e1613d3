package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/ignite/campaign-insights/internal/anomaly"
	"github.com/ignite/campaign-insights/internal/config"
)

// DefaultRetention is how long archived anomalies are kept.
const DefaultRetention = 90 * 24 * time.Hour

// Record is an anomaly together with the time it was archived.
type Record struct {
	anomaly.Anomaly
	DetectedAt time.Time `json:"detected_at"`
}

// Archive persists flagged anomalies for later review.
type Archive interface {
	Save(ctx context.Context, anomalies []anomaly.Anomaly) error
	List(ctx context.Context, group string, since time.Time) ([]Record, error)
}

// New builds the archive selected by cfg.Type: "aws" uses DynamoDB,
// "local" writes JSON files under cfg.LocalPath. An empty type disables
// archiving and returns nil.
func New(ctx context.Context, cfg config.ArchiveConfig, region, profile string) (Archive, error) {
	retention := time.Duration(cfg.RetentionDays) * 24 * time.Hour

	switch cfg.Type {
	case "aws":
		awsCfg, err := LoadAWSConfig(ctx, region, profile)
		if err != nil {
			return nil, fmt.Errorf("initializing anomaly archive: %w", err)
		}
		return NewAnomalyArchive(dynamodb.NewFromConfig(awsCfg), cfg.DynamoDBTable, retention), nil
	case "local":
		local, err := NewLocalArchive(cfg.LocalPath, retention)
		if err != nil {
			return nil, err
		}
		return local, nil
	case "":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown archive type %q", cfg.Type)
}

// LocalArchive keeps one JSON file per group on disk. Used for development
// and single-node deployments.
type LocalArchive struct {
	dir       string
	retention time.Duration
	now       func() time.Time
	mu        sync.Mutex
}

// NewLocalArchive creates the archive directory if needed.
func NewLocalArchive(dir string, retention time.Duration) (*LocalArchive, error) {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	return &LocalArchive{dir: dir, retention: retention, now: time.Now}, nil
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (l *LocalArchive) path(group string) string {
	name := unsafeFileChars.ReplaceAllString(group, "_")
	if name == "" {
		name = "_"
	}
	return filepath.Join(l.dir, name+".json")
}

func (l *LocalArchive) load(group string) ([]Record, error) {
	data, err := os.ReadFile(l.path(group))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", l.path(group), err)
	}
	return recs, nil
}

// Save appends anomalies to their group files, replacing earlier entries with
// the same ID, and drops expired entries.
func (l *LocalArchive) Save(_ context.Context, anomalies []anomaly.Anomaly) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().UTC()
	byGroup := make(map[string][]Record)
	var order []string
	for _, an := range anomalies {
		if _, ok := byGroup[an.Group]; !ok {
			order = append(order, an.Group)
		}
		byGroup[an.Group] = append(byGroup[an.Group], Record{Anomaly: an, DetectedAt: now})
	}

	cutoff := now.Add(-l.retention)
	for _, group := range order {
		existing, err := l.load(group)
		if err != nil {
			return err
		}
		incoming := make(map[string]struct{}, len(byGroup[group]))
		for _, rec := range byGroup[group] {
			incoming[rec.ID] = struct{}{}
		}
		kept := existing[:0]
		for _, rec := range existing {
			if _, again := incoming[rec.ID]; again || rec.DetectedAt.Before(cutoff) {
				continue
			}
			kept = append(kept, rec)
		}
		kept = append(kept, byGroup[group]...)

		data, err := json.MarshalIndent(kept, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling archive: %w", err)
		}
		if err := os.WriteFile(l.path(group), data, 0644); err != nil {
			return fmt.Errorf("writing archive: %w", err)
		}
	}
	return nil
}

// List returns a group's anomalies detected at or after since, oldest first.
func (l *LocalArchive) List(_ context.Context, group string, since time.Time) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	recs, err := l.load(group)
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, rec := range recs {
		if !rec.DetectedAt.Before(since) {
			out = append(out, rec)
		}
	}
	return latestByID(out), nil
}

// latestByID keeps the most recent record per anomaly ID, oldest first.
func latestByID(recs []Record) []Record {
	latest := make(map[string]int, len(recs))
	for i, rec := range recs {
		if j, ok := latest[rec.ID]; !ok || !rec.DetectedAt.Before(recs[j].DetectedAt) {
			latest[rec.ID] = i
		}
	}
	out := make([]Record, 0, len(latest))
	for i, rec := range recs {
		if latest[rec.ID] == i {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DetectedAt.Before(out[j].DetectedAt) })
	return out
}
