package storm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/justinjudd/league/models"

	"github.com/asdine/storm"
	"github.com/asdine/storm/codec/msgpack"
	"github.com/asdine/storm/q"
	bolt "go.etcd.io/bbolt"
)

// Engine is a StorageEngine backed by a storm (bolt) database
type Engine struct {
	db *storm.DB
}

var _ models.StorageEngine = (*Engine)(nil)

// NewStorageEngine opens (creating if needed) the storm database at path. timeout bounds how long to wait for the file lock
func NewStorageEngine(path string, timeout time.Duration) (*Engine, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	db, err := storm.Open(path,
		storm.Codec(msgpack.Codec),
		storm.BoltOptions(0o600, &bolt.Options{Timeout: timeout}),
	)
	//db, err := storm.Open(path) // Use this for debug or if you want JSON stored in the database
	if err != nil {
		return nil, fmt.Errorf("Unable to open storage engine: %w", err)
	}

	for _, kind := range []interface{}{&models.Competition{}, &models.ResultEntry{}} {
		if err := db.Init(kind); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init buckets: %w", err)
		}
	}

	return &Engine{db}, nil
}

// Close releases the database file
func (e *Engine) Close() error {
	if e == nil || e.db == nil {
		return nil
	}
	return e.db.Close()
}

func (e *Engine) Save(ctx context.Context, c models.Competition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := e.db.Begin(true)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := saveCompetition(tx, c); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit competition %s: %w", c.ID, err)
	}
	return nil
}

func (e *Engine) SaveResult(ctx context.Context, c models.Competition, entry models.ResultEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := e.db.Begin(true)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := saveCompetition(tx, c); err != nil {
		return err
	}
	entry.Seq = 0
	entry.CompetitionID = c.ID
	if err := tx.Save(&entry); err != nil {
		return fmt.Errorf("save result for match %s: %w", entry.MatchID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit competition %s: %w", c.ID, err)
	}
	return nil
}

// saveCompetition writes c if its version follows the stored one
func saveCompetition(tx storm.Node, c models.Competition) error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("competition id is required")
	}

	var stored models.Competition
	err := tx.One("ID", c.ID, &stored)
	switch {
	case errors.Is(err, storm.ErrNotFound):
		if c.Version != 1 {
			return fmt.Errorf("competition %s is not stored, got version %d: %w", c.ID, c.Version, models.ErrVersionConflict)
		}
	case err != nil:
		return fmt.Errorf("load competition %s: %w", c.ID, err)
	case c.Version != stored.Version+1:
		return fmt.Errorf("competition %s stored at version %d, got %d: %w", c.ID, stored.Version, c.Version, models.ErrVersionConflict)
	}

	if err := tx.Save(&c); err != nil {
		if errors.Is(err, storm.ErrAlreadyExists) {
			return fmt.Errorf("share code %s: %w", c.ShareCode, models.ErrShareCodeTaken)
		}
		return fmt.Errorf("save competition %s: %w", c.ID, err)
	}
	return nil
}

func (e *Engine) GetCompetition(ctx context.Context, id string) (models.Competition, error) {
	return e.one(ctx, "ID", id)
}

func (e *Engine) GetCompetitionByShareCode(ctx context.Context, code string) (models.Competition, error) {
	return e.one(ctx, "ShareCode", strings.ToUpper(strings.TrimSpace(code)))
}

func (e *Engine) one(ctx context.Context, field, value string) (models.Competition, error) {
	if err := ctx.Err(); err != nil {
		return models.Competition{}, err
	}
	var c models.Competition
	err := e.db.One(field, value, &c)
	if errors.Is(err, storm.ErrNotFound) {
		return models.Competition{}, fmt.Errorf("competition %s=%s: %w", field, value, models.ErrNotFound)
	}
	if err != nil {
		return models.Competition{}, fmt.Errorf("get competition %s=%s: %w", field, value, err)
	}
	return c, nil
}

func (e *Engine) GetCompetitions(ctx context.Context) ([]models.Competition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	comps := []models.Competition{}
	if err := e.db.All(&comps); err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}
	sort.Slice(comps, func(i, j int) bool {
		if !comps[i].CreatedAt.Equal(comps[j].CreatedAt) {
			return comps[i].CreatedAt.Before(comps[j].CreatedAt)
		}
		return comps[i].ID < comps[j].ID
	})
	return comps, nil
}

func (e *Engine) GetResults(ctx context.Context, competitionID string) ([]models.ResultEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var entries []models.ResultEntry
	err := e.db.Select(q.Eq("CompetitionID", competitionID)).OrderBy("Seq").Find(&entries)
	if errors.Is(err, storm.ErrNotFound) {
		return []models.ResultEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("results for %s: %w", competitionID, err)
	}
	return entries, nil
}

func (e *Engine) DeleteCompetition(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx, err := e.db.Begin(true)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var c models.Competition
	if err := tx.One("ID", id, &c); err != nil {
		if errors.Is(err, storm.ErrNotFound) {
			return fmt.Errorf("competition %s: %w", id, models.ErrNotFound)
		}
		return fmt.Errorf("load competition %s: %w", id, err)
	}
	if err := tx.DeleteStruct(&c); err != nil {
		return fmt.Errorf("delete competition %s: %w", id, err)
	}
	err = tx.Select(q.Eq("CompetitionID", id)).Delete(new(models.ResultEntry))
	if err != nil && !errors.Is(err, storm.ErrNotFound) {
		return fmt.Errorf("delete results of %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete %s: %w", id, err)
	}
	return nil
}
