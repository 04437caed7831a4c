// Package store provides the notice vector store facade: one embedder, one
// active similarity index, and the add/search/get/delete/count/list
// operations the API and CLI are built on.
package store

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/biolinker/grantindex/internal/config"
	"github.com/biolinker/grantindex/internal/embedding"
	"github.com/biolinker/grantindex/internal/index"
	"github.com/biolinker/grantindex/internal/models"
	"github.com/biolinker/grantindex/pkg/utils"
)

// bodyHead is how much of the notice body joins the title in the indexing
// text, bounding embedding cost per notice.
const bodyHead = 2000

// Store is the single entry point over the embedding provider and the
// active similarity index. Backend and provider are chosen once at
// construction and never re-evaluated; when the active backend is the
// persistent variant, a memory fallback index over the same directory
// absorbs query-time failures.
type Store struct {
	embedder embedding.Embedder
	index    index.Index
	backend  index.Backend
	fallback index.Index // nil when the active backend is already memory
	logger   *zap.Logger
}

// New constructs a store from cfg: selects the embedding provider, probes
// the index backend, and wires the query-time fallback. Construction fails
// only on misconfiguration (unknown provider/backend, forced sqlite without
// cgo); missing credentials and missing sqlite degrade with a logged
// warning instead.
func New(cfg *config.Config, logger *zap.Logger) (*Store, error) {
	embedder, err := embedding.Select(&cfg.Embedding, logger)
	if err != nil {
		return nil, err
	}
	idx, backend, err := index.Open(cfg.Storage.PersistDir, cfg.Storage.Backend, logger)
	if err != nil {
		return nil, err
	}
	s := &Store{
		embedder: embedder,
		index:    idx,
		backend:  backend,
		logger:   logger,
	}
	if backend != index.BackendMemory {
		s.fallback = index.NewMemoryIndex(cfg.Storage.PersistDir)
	}
	logger.Info("vector store ready",
		zap.String("backend", string(backend)),
		zap.String("embedding_provider", string(embedder.Provider())),
	)
	return s, nil
}

// Backend reports which index variant is active.
func (s *Store) Backend() index.Backend {
	return s.backend
}

// Provider reports which embedding backend is active.
func (s *Store) Provider() embedding.Provider {
	return s.embedder.Provider()
}

// indexingText is the truncated title+body concatenation both stored and
// embedded for a notice.
func indexingText(title, body string) string {
	return title + "\n" + utils.Head(body, bodyHead)
}

// noticeID returns the caller-supplied id, else one derived
// deterministically from the title, else a random one.
func noticeID(n *models.Notice) string {
	if n.ID != "" {
		return n.ID
	}
	if n.Title != "" {
		sum := sha1.Sum([]byte(n.Title))
		return "notice_" + hex.EncodeToString(sum[:])[:12]
	}
	return uuid.New().String()
}

// AddNotice embeds and stores one notice, returning its id. Adding under an
// existing id overwrites the prior record. Write failures propagate; they
// are never swallowed.
func (s *Store) AddNotice(ctx context.Context, n *models.Notice) (string, error) {
	return s.add(ctx, noticeID(n), n, index.TypeNotice)
}

func (s *Store) add(ctx context.Context, id string, n *models.Notice, recordType string) (string, error) {
	text := indexingText(n.Title, n.BodyText)
	emb, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return "", fmt.Errorf("embed %s %s: %w", recordType, id, err)
	}
	entry := &index.Entry{
		Embedding: emb,
		Metadata:  index.EncodeMetadata(n, recordType, string(s.embedder.Provider())),
		Document:  text,
	}
	if err := s.index.Add(ctx, id, entry); err != nil {
		return "", fmt.Errorf("add %s %s: %w", recordType, id, err)
	}
	return id, nil
}

// AddNotices stores a batch best-effort: a failure on one notice is logged
// and skipped so a partial failure does not abort the batch. Returns the
// ids of the notices that were stored.
func (s *Store) AddNotices(ctx context.Context, notices []*models.Notice) []string {
	ids := make([]string, 0, len(notices))
	for _, n := range notices {
		id, err := s.AddNotice(ctx, n)
		if err != nil {
			s.logger.Warn("add notice failed, skipping",
				zap.String("title", n.Title),
				zap.Error(err),
			)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// AddPaper stores an uploaded paper through the same path as notices,
// tagged with a fixed "Paper" source and a paper record type so downstream
// filters can tell the two apart.
func (s *Store) AddPaper(ctx context.Context, id, title, abstract, fullText string, keywords []string) (string, error) {
	n := &models.Notice{
		ID:       id,
		Title:    title,
		Source:   "Paper",
		BodyText: strings.TrimSpace(abstract + "\n" + fullText),
		Keywords: keywords,
	}
	return s.add(ctx, noticeID(n), n, index.TypePaper)
}

// SearchSimilar embeds query and returns up to n notices ranked by
// descending similarity, optionally restricted by an equality filter.
// A query failure on the persistent variant is logged and retried once
// against the memory fallback; a failure of the fallback propagates.
func (s *Store) SearchSimilar(ctx context.Context, query string, n int, filter index.Filter) ([]*models.Match, error) {
	if n <= 0 {
		return []*models.Match{}, nil
	}
	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.index.Query(ctx, emb, n, filter)
	if err != nil && s.fallback != nil {
		s.logger.Warn("index query failed, retrying against memory index", zap.Error(err))
		results, err = s.fallback.Query(ctx, emb, n, filter)
	}
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}

	matches := make([]*models.Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, &models.Match{
			Notice: index.DecodeNotice(r.ID, r.Entry),
			Score:  r.Score,
		})
	}
	return matches, nil
}

// SearchByProfile composes a query from the user's technology profile and
// returns flat result mappings ready for serialization, each carrying a
// similarity_score key.
func (s *Store) SearchByProfile(ctx context.Context, p *models.Profile, n int) ([]map[string]any, error) {
	query := fmt.Sprintf("기술 키워드: %s\n역량: %s",
		strings.Join(p.TechKeywords, ", "), p.TechDescription)
	matches, err := s.SearchSimilar(ctx, query, n, nil)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(matches))
	for _, m := range matches {
		item := map[string]any{
			"id":               m.Notice.ID,
			"title":            m.Notice.Title,
			"source":           m.Notice.Source,
			"url":              m.Notice.URL,
			"keywords":         m.Notice.Keywords,
			"similarity_score": m.Score,
		}
		if m.Notice.Deadline != nil {
			item["deadline"] = m.Notice.Deadline.Format(time.RFC3339)
		} else {
			item["deadline"] = ""
		}
		out = append(out, item)
	}
	return out, nil
}

// GetNotice returns the stored notice under id, or nil when absent.
func (s *Store) GetNotice(ctx context.Context, id string) (*models.Notice, error) {
	entry, err := s.index.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get notice %s: %w", id, err)
	}
	if entry == nil {
		return nil, nil
	}
	return index.DecodeNotice(id, entry), nil
}

// DeleteNotice removes the notice under id. Like all writes, failures
// propagate.
func (s *Store) DeleteNotice(ctx context.Context, id string) error {
	if err := s.index.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete notice %s: %w", id, err)
	}
	return nil
}

// Count returns the number of stored notices. An inaccessible backing
// store yields 0, never an error, so callers can report "no matches"
// instead of failing.
func (s *Store) Count(ctx context.Context) int {
	n, err := s.index.Count(ctx)
	if err != nil {
		s.logger.Warn("count failed", zap.Error(err))
		return 0
	}
	return n
}

// ListAll returns up to limit stored notices. Degrades to an empty list on
// backend failure, same as Count.
func (s *Store) ListAll(ctx context.Context, limit int) []*models.Notice {
	results, err := s.index.List(ctx, limit)
	if err != nil {
		s.logger.Warn("list failed", zap.Error(err))
		return []*models.Notice{}
	}
	notices := make([]*models.Notice, 0, len(results))
	for _, r := range results {
		notices = append(notices, index.DecodeNotice(r.ID, r.Entry))
	}
	return notices
}

// Close releases the embedder and index handles.
func (s *Store) Close() error {
	embErr := s.embedder.Close()
	idxErr := s.index.Close()
	if embErr != nil {
		return embErr
	}
	return idxErr
}
