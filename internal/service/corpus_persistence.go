package service

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"corpus-go/internal/model/corpus"
	"corpus-go/internal/service/cooc"
	"corpus-go/internal/service/interner"
	"corpus-go/internal/service/suffix"

	"go.uber.org/zap"
)

const snapshotVersion = "1.0"

// CorpusSnapshot is the serializable form of a built corpus
type CorpusSnapshot struct {
	Version   string    // Format version
	ID        string    // Snapshot id assigned at build time
	Name      string    // Corpus name
	CreatedAt time.Time // When the snapshot was written

	Tokens   []string        // Token table in code order
	Sequence corpus.Sequence // Interned corpus
	Suffixes []int           // Sorted suffix offsets
	Entries  []corpus.Entry  // Co-occurrence table
	Stats    CorpusStats     // Build statistics, including window widths
}

// CorpusPersistence handles saving and loading corpus snapshots
type CorpusPersistence struct {
	outputDir string
	logger    *zap.Logger
}

// NewCorpusPersistence creates a new persistence manager
func NewCorpusPersistence(outputDir string, logger *zap.Logger) (*CorpusPersistence, error) {
	// Create output directory if it doesn't exist
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &CorpusPersistence{
		outputDir: outputDir,
		logger:    logger,
	}, nil
}

// GetSnapshotPath returns the file path of a corpus snapshot
func (p *CorpusPersistence) GetSnapshotPath(name string) string {
	return filepath.Join(p.outputDir, fmt.Sprintf("%s_corpus.gob", name))
}

// SaveCorpusManager writes the current corpus of cm to disk
func (p *CorpusPersistence) SaveCorpusManager(cm *CorpusManager) error {
	cm.mu.RLock()
	if cm.corpus == nil {
		cm.mu.RUnlock()
		return ErrNoCorpus
	}
	snapshot := &CorpusSnapshot{
		Version:   snapshotVersion,
		ID:        cm.stats.SnapshotID,
		Name:      cm.name,
		CreatedAt: time.Now(),
		Tokens:    cm.corpus.Interner().Tokens(),
		Sequence:  cm.corpus.Index().Sequence(),
		Suffixes:  cm.corpus.Index().SuffixArray(),
		Entries:   cm.table.Entries(),
		Stats:     cm.stats,
	}
	cm.mu.RUnlock()

	// Write to a temporary file first so a crash never leaves a truncated snapshot
	path := p.GetSnapshotPath(cm.name)
	tmpPath := path + ".tmp"
	if err := p.saveToFile(snapshot, tmpPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save to file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move snapshot into place: %w", err)
	}

	p.logger.Info("Saved corpus snapshot",
		zap.String("corpus", cm.name),
		zap.String("snapshot_id", snapshot.ID),
		zap.String("path", path),
		zap.Int("sequence_length", len(snapshot.Sequence)),
		zap.Int("cooccurrence_pairs", len(snapshot.Entries)))

	return nil
}

// LoadCorpusManager restores the snapshot called name into cm
func (p *CorpusPersistence) LoadCorpusManager(cm *CorpusManager, name string) error {
	if name != cm.Name() {
		return fmt.Errorf("snapshot %s cannot be loaded into corpus %s", name, cm.Name())
	}
	path := p.GetSnapshotPath(name)

	// Check if file exists
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("no saved corpus named %s: %w", name, ErrNotFound)
	}

	snapshot, err := p.loadFromFile(path)
	if err != nil {
		return fmt.Errorf("failed to load from file: %w", err)
	}
	if snapshot.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %q", snapshot.Version)
	}

	in, err := interner.FromTokens(snapshot.Tokens)
	if err != nil {
		return fmt.Errorf("failed to restore interner: %w", err)
	}
	ix, err := suffix.Restore(snapshot.Sequence, snapshot.Suffixes)
	if err != nil {
		return fmt.Errorf("failed to restore suffix index: %w", err)
	}
	for _, code := range snapshot.Sequence {
		if int(code) >= in.Len() {
			return fmt.Errorf("sequence code %d outside token table of %d", code, in.Len())
		}
	}

	stats := snapshot.Stats
	stats.SnapshotID = snapshot.ID
	cm.install(NewCorpus(in, ix), cooc.TableFromEntries(snapshot.Entries), stats)

	p.logger.Info("Loaded corpus snapshot",
		zap.String("corpus", name),
		zap.String("snapshot_id", snapshot.ID),
		zap.String("path", path),
		zap.Int("sequence_length", len(snapshot.Sequence)))

	return nil
}

// SnapshotExists checks if a saved snapshot exists for a corpus
func (p *CorpusPersistence) SnapshotExists(name string) bool {
	_, err := os.Stat(p.GetSnapshotPath(name))
	return err == nil
}

// DeleteSnapshot removes a saved snapshot
func (p *CorpusPersistence) DeleteSnapshot(name string) error {
	path := p.GetSnapshotPath(name)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	p.logger.Info("Deleted corpus snapshot", zap.String("corpus", name))
	return nil
}

// saveToFile saves a snapshot to a file using gob encoding
func (p *CorpusPersistence) saveToFile(snapshot *CorpusSnapshot, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(snapshot); err != nil {
		return err
	}

	return file.Sync()
}

// loadFromFile loads a snapshot from a file using gob decoding
func (p *CorpusPersistence) loadFromFile(path string) (*CorpusSnapshot, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var snapshot CorpusSnapshot
	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(&snapshot); err != nil {
		return nil, err
	}

	return &snapshot, nil
}
