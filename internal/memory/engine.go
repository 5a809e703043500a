// Package memory is the Core API façade: generate_memories, remember,
// attach_memories, and the read-only accessors, orchestrating extraction,
// storage, recall and the async learning queue behind the handle returned
// by Open.
// Startup/shutdown follow a started/shuttingDown state machine guarded
// by a RWMutex; writes run through extract.Pipeline synchronously rather
// than through an LLM call.
package memory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/kuzu-memory/kuzu-memory/internal/config"
	"github.com/kuzu-memory/kuzu-memory/internal/dedupcache"
	"github.com/kuzu-memory/kuzu-memory/internal/extract"
	"github.com/kuzu-memory/kuzu-memory/internal/gitident"
	"github.com/kuzu-memory/kuzu-memory/internal/lockfile"
	"github.com/kuzu-memory/kuzu-memory/internal/queue"
	"github.com/kuzu-memory/kuzu-memory/internal/recall"
	"github.com/kuzu-memory/kuzu-memory/internal/storage"
	"github.com/kuzu-memory/kuzu-memory/internal/storage/sqlite"
	"github.com/kuzu-memory/kuzu-memory/pkg/types"
)

// Engine is the handle returned by Open; every public method renders one
// of the Core API's free functions (open/generate_memories/remember/
// attach_memories/get_recent_memories/memories_by_user/distinct_users/
// stats/close).
type Engine struct {
	cfg   *config.Config
	store storage.Store

	lock         *lockfile.Lock
	writeTimeout time.Duration // foreground callers: bounded poll
	hookTimeout  time.Duration // hook callers: single non-blocking attempt

	pipeline *extract.Pipeline
	recaller *recall.Engine
	queue    *queue.Queue
	dedup    *dedupcache.Cache

	mu           sync.RWMutex
	started      bool
	shuttingDown bool
}

// Open builds and starts an Engine backed by a SQLite store at dbPath,
// launching the async learning queue's worker pool. Pass nil for cfg to use
// defaults.
func Open(ctx context.Context, dbPath string, cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		var err error
		cfg, err = config.Load("")
		if err != nil {
			return nil, fmt.Errorf("memory: loading default config: %w", err)
		}
	}

	store, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("memory: opening storage: %w", err)
	}

	q := queue.New(cfg.Async.Workers, cfg.Async.MaxQueue, time.Duration(cfg.Async.TaskTTLSec)*time.Second)
	if err := q.Start(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("memory: starting async queue: %w", err)
	}

	e := &Engine{
		cfg:          cfg,
		store:        store,
		lock:         lockfile.New(dbPath),
		writeTimeout: time.Duration(cfg.Locks.ForegroundTimeoutSec) * time.Second,
		hookTimeout:  time.Duration(cfg.Locks.HookTimeoutSec) * time.Second,
		pipeline:     extract.New(),
		recaller:     recall.New(store),
		queue:        q,
		dedup:        dedupcache.New(dedupcache.DefaultTTL),
		started:      true,
	}

	log.Printf("memory: engine opened at %s (workers=%d queue=%d)", dbPath, cfg.Async.Workers, cfg.Async.MaxQueue)
	return e, nil
}

// resolveUserID applies memory.auto_tag_git_user / memory.user_id_override:
// an explicit override wins, then git identity, else nil.
func (e *Engine) resolveUserID(explicit *string) *string {
	if explicit != nil && *explicit != "" {
		return explicit
	}
	if e.cfg.Memory.UserIDOverride != "" {
		v := e.cfg.Memory.UserIDOverride
		return &v
	}
	if !e.cfg.Memory.AutoTagGitUser {
		return nil
	}
	if user := gitident.DetectUser(os.Getenv); user != "" {
		return &user
	}
	return nil
}

// GenerateMemories runs the extraction pipeline over text and persists every
// resulting candidate, writing MENTIONS edges for its recognized entities.
// Returns the ids of the stored memories: a candidate that collapses onto an
// existing row by content_hash yields that row's id, and a candidate
// suppressed by the in-process dedup cache is omitted. It blocks up to the foreground lock timeout waiting
// for a contended write lock; callers that must never block (editor hooks)
// should use GenerateMemoriesHook instead.
func (e *Engine) GenerateMemories(ctx context.Context, text, sourceType string, user, session, agent *string, metadata map[string]interface{}) ([]string, error) {
	ids, skipped, err := e.generateMemories(ctx, text, sourceType, user, session, agent, metadata, e.writeTimeout)
	if err != nil {
		return nil, err
	}
	if skipped {
		return nil, fmt.Errorf("memory: acquiring lock: %w", lockfile.ErrBusy)
	}
	return ids, nil
}

// GenerateMemoriesHook is the hook-mode counterpart of GenerateMemories: it
// makes a single non-blocking attempt at the write lock (bounded by
// locks.hook_timeout_sec) and, on contention, returns Skipped instead of an
// error so a caller on an editor's critical path can drop the write and
// move on.
func (e *Engine) GenerateMemoriesHook(ctx context.Context, text, sourceType string, user, session, agent *string, metadata map[string]interface{}) (ids []string, skipped bool, err error) {
	return e.generateMemories(ctx, text, sourceType, user, session, agent, metadata, e.hookTimeout)
}

func (e *Engine) generateMemories(ctx context.Context, text, sourceType string, user, session, agent *string, metadata map[string]interface{}, timeout time.Duration) (ids []string, skipped bool, err error) {
	e.mu.RLock()
	if !e.started {
		e.mu.RUnlock()
		return nil, false, fmt.Errorf("memory: engine not started")
	}
	e.mu.RUnlock()

	hints := extract.Hints{DefaultDirectiveType: types.MemoryTypeContext, SourceType: sourceType}
	candidates := e.pipeline.Extract(text, hints, extract.Options{})
	if len(candidates) == 0 {
		return nil, false, nil
	}

	userID := e.resolveUserID(user)

	handle, err := e.lock.TryAcquire(ctx, timeout)
	if err != nil {
		if errors.Is(err, lockfile.ErrBusy) {
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("memory: acquiring lock: %w", err)
	}
	defer handle.Release()

	var toWrite []*types.Memory
	var toWriteCandidates []extract.Candidate
	for _, c := range candidates {
		if e.dedup.SeenRecently(c.ContentHash) {
			continue
		}
		toWrite = append(toWrite, &types.Memory{
			Content:    c.Content,
			MemoryType: c.MemoryType,
			Importance: c.Importance,
			Confidence: c.Confidence,
			SourceType: sourceType,
			UserID:     userID,
			SessionID:  session,
			AgentID:    agent,
			Entities:   c.Entities,
			Metadata:   metadata,
		})
		toWriteCandidates = append(toWriteCandidates, c)
	}
	if len(toWrite) == 0 {
		return nil, false, nil
	}

	storedIDs, err := e.store.PutMemories(ctx, toWrite)
	if err != nil {
		return nil, false, fmt.Errorf("memory: storing candidates: %w", err)
	}

	for i, id := range storedIDs {
		if err := e.writeMentions(ctx, id, toWriteCandidates[i]); err != nil {
			log.Printf("memory: writing mentions for %s failed (non-fatal): %v", id, err)
		}
	}

	return storedIDs, false, nil
}

// writeMentions re-runs typed entity recognition on the candidate's content
// (cheap: regex only) to recover entity_type, since Candidate.Entities and
// Memory.Entities carry surface names only.
func (e *Engine) writeMentions(ctx context.Context, memoryID string, c extract.Candidate) error {
	for _, hit := range extract.RecognizeEntitiesTyped(c.Content) {
		entID, err := e.store.PutEntity(ctx, &types.Entity{Name: hit.Name, EntityType: hit.EntityType})
		if err != nil {
			return fmt.Errorf("put entity %q: %w", hit.Name, err)
		}
		if err := e.store.PutMention(ctx, types.Mention{MemoryID: memoryID, EntityID: entID, Confidence: c.Confidence}); err != nil {
			return fmt.Errorf("put mention %q: %w", hit.Name, err)
		}
	}
	return nil
}

// GenerateMemoriesAsync submits GenerateMemories to the async learning
// queue and returns immediately with the task id; the worker runs the
// same extraction-and-store path as the synchronous call.
func (e *Engine) GenerateMemoriesAsync(text, sourceType string, user, session, agent *string, metadata map[string]interface{}, priority queue.Priority) (queue.TaskID, error) {
	return e.queue.Submit(func(ctx context.Context) error {
		_, err := e.GenerateMemories(ctx, text, sourceType, user, session, agent, metadata)
		return err
	}, priority)
}

// Remember stores a single, already-formed piece of content verbatim as a
// Context memory, bypassing pattern extraction. It blocks up to the
// foreground lock timeout waiting for a contended write lock; callers that
// must never block should use RememberHook instead.
func (e *Engine) Remember(ctx context.Context, content string, metadata map[string]interface{}) (string, error) {
	id, skipped, err := e.remember(ctx, content, metadata, e.writeTimeout)
	if err != nil {
		return "", err
	}
	if skipped {
		return "", fmt.Errorf("memory: acquiring lock: %w", lockfile.ErrBusy)
	}
	return id, nil
}

// RememberHook is the hook-mode counterpart of Remember: it makes a single
// non-blocking attempt at the write lock (bounded by locks.hook_timeout_sec)
// and, on contention, returns skipped=true instead of an error.
func (e *Engine) RememberHook(ctx context.Context, content string, metadata map[string]interface{}) (id string, skipped bool, err error) {
	return e.remember(ctx, content, metadata, e.hookTimeout)
}

func (e *Engine) remember(ctx context.Context, content string, metadata map[string]interface{}, timeout time.Duration) (id string, skipped bool, err error) {
	e.mu.RLock()
	if !e.started {
		e.mu.RUnlock()
		return "", false, fmt.Errorf("memory: engine not started")
	}
	e.mu.RUnlock()

	if content == "" {
		return "", false, fmt.Errorf("%w: content is required", storage.ErrInvalidInput)
	}

	handle, err := e.lock.TryAcquire(ctx, timeout)
	if err != nil {
		if errors.Is(err, lockfile.ErrBusy) {
			return "", true, nil
		}
		return "", false, fmt.Errorf("memory: acquiring lock: %w", err)
	}
	defer handle.Release()

	userID := e.resolveUserID(nil)
	m := &types.Memory{
		Content:    content,
		MemoryType: types.MemoryTypeContext,
		Importance: 0.7,
		Confidence: 1.0,
		SourceType: "remember",
		UserID:     userID,
		Entities:   extract.RecognizeEntityNames(content),
		Metadata:   metadata,
	}

	storedID, err := e.store.PutMemory(ctx, m)
	if err != nil {
		return "", false, fmt.Errorf("memory: storing remembered content: %w", err)
	}
	if err := e.writeMentions(ctx, storedID, extract.Candidate{Content: content, Confidence: 1.0}); err != nil {
		log.Printf("memory: writing mentions for %s failed (non-fatal): %v", storedID, err)
	}
	return storedID, false, nil
}

// AttachMemories runs the recall engine for prompt and returns a ranked
// Context bundle.
func (e *Engine) AttachMemories(ctx context.Context, prompt string, limit int, strategy recall.Strategy, filters storage.Filters) (*recall.Context, error) {
	e.mu.RLock()
	started := e.started
	e.mu.RUnlock()
	if !started {
		return nil, fmt.Errorf("memory: engine not started")
	}
	if strategy == "" {
		strategy = recall.Strategy(e.cfg.Recall.DefaultStrategy)
	}
	if limit <= 0 {
		limit = e.cfg.Recall.MaxMemories
	}
	return e.recaller.Recall(ctx, prompt, limit, strategy, filters)
}

// GetRecentMemories returns up to limit of the most recently created valid
// memories, optionally narrowed to one memory_type.
func (e *Engine) GetRecentMemories(ctx context.Context, limit int, memType types.MemoryType) ([]*types.Memory, error) {
	filters := storage.Filters{ValidOnly: true, MemoryType: memType}
	return e.store.QueryRecent(ctx, time.Time{}, limit, filters)
}

// MemoriesByUser returns up to limit memories for user, most-recent first.
func (e *Engine) MemoriesByUser(ctx context.Context, user string, limit int) ([]*types.Memory, error) {
	return e.store.MemoriesByUser(ctx, user, limit)
}

// DistinctUsers returns every distinct user_id on record.
func (e *Engine) DistinctUsers(ctx context.Context) ([]string, error) {
	return e.store.DistinctUsers(ctx)
}

// Stats reports storage-level counters.
func (e *Engine) Stats(ctx context.Context) (storage.Stats, error) {
	return e.store.Stats(ctx)
}

// Close drains the async queue and releases the underlying store.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return fmt.Errorf("memory: engine not started")
	}
	e.shuttingDown = true
	e.mu.Unlock()

	if err := e.queue.Shutdown(ctx); err != nil {
		log.Printf("memory: queue shutdown had errors: %v", err)
	}

	err := e.store.Close()

	e.mu.Lock()
	e.started = false
	e.shuttingDown = false
	e.mu.Unlock()

	if err != nil {
		return fmt.Errorf("memory: closing storage: %w", err)
	}
	return nil
}
