package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/svgkeeper/internal/common"
	"github.com/dmitrijs2005/svgkeeper/internal/dbx"
	"github.com/dmitrijs2005/svgkeeper/internal/logging"
	"github.com/dmitrijs2005/svgkeeper/internal/server/blobs"
	"github.com/dmitrijs2005/svgkeeper/internal/server/models"
	"github.com/dmitrijs2005/svgkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/svgkeeper/internal/timex"
)

// DocumentService is the content store. Documents are addressed by
// (owner, name); writes to the same key are serialized and the last write
// wins.
type DocumentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blobs.Store
	clock       *timex.MonotonicClock
	locks       *stripedLocks
	log         logging.Logger
}

// NewDocumentService keeps content inline in the documents table when
// store is nil, otherwise in store with the row holding the object key.
func NewDocumentService(db *sql.DB, m repomanager.RepositoryManager, store blobs.Store, log logging.Logger) *DocumentService {
	return &DocumentService{
		db:          db,
		repomanager: m,
		blobs:       store,
		clock:       timex.NewMonotonicClock(),
		locks:       newStripedLocks(),
		log:         log.With("module", "documents"),
	}
}

// Save creates or replaces the document and refreshes its modification
// time.
func (s *DocumentService) Save(ctx context.Context, owner, name string, content []byte) error {
	if owner == "" || name == "" || len(content) == 0 || len(name) > common.MaxFileNameLength {
		return common.ErrorValidation
	}

	mu := s.locks.get(owner, name)
	mu.Lock()
	defer mu.Unlock()

	if s.blobs == nil {
		doc := &models.Document{Owner: owner, Name: name, Content: content, UpdatedAt: s.clock.Now()}
		if err := s.repomanager.Documents(s.db).Upsert(ctx, doc); err != nil {
			s.log.Error(ctx, "error saving document", "owner", owner, "name", name, "error", err)
			return common.ErrorInternal
		}
		return nil
	}

	return s.saveBlob(ctx, owner, name, content)
}

func (s *DocumentService) saveBlob(ctx context.Context, owner, name string, content []byte) error {
	key := blobs.NewObjectKey(owner)
	if err := s.blobs.Put(ctx, key, content); err != nil {
		s.log.Error(ctx, "error storing document content", "owner", owner, "name", name, "error", err)
		return common.ErrorInternal
	}

	var previous string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Documents(tx)

		old, err := repo.StorageKey(ctx, owner, name)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		previous = old

		return repo.Upsert(ctx, &models.Document{Owner: owner, Name: name, StorageKey: key, UpdatedAt: s.clock.Now()})
	})
	if err != nil {
		s.log.Error(ctx, "error saving document", "owner", owner, "name", name, "error", err)
		s.deleteBlob(ctx, key)
		return common.ErrorInternal
	}

	if previous != "" {
		s.deleteBlob(ctx, previous)
	}
	return nil
}

func (s *DocumentService) deleteBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.log.Warn(ctx, "orphaned document object", "key", key, "error", err)
	}
}

// Get returns the content of owner's document name, or common.ErrorNotFound.
func (s *DocumentService) Get(ctx context.Context, owner, name string) ([]byte, error) {
	if owner == "" || name == "" {
		return nil, common.ErrorValidation
	}

	// Save deletes the superseded object; the row read and the object fetch
	// happen under the same key lock.
	if s.blobs != nil {
		mu := s.locks.get(owner, name)
		mu.Lock()
		defer mu.Unlock()
	}

	doc, err := s.repomanager.Documents(s.db).Get(ctx, owner, name)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.log.Error(ctx, "error loading document", "owner", owner, "name", name, "error", err)
		return nil, common.ErrorInternal
	}

	if doc.StorageKey == "" {
		return doc.Content, nil
	}
	if s.blobs == nil {
		s.log.Error(ctx, "document stored externally but no blob store configured", "owner", owner, "name", name)
		return nil, common.ErrorInternal
	}

	content, err := s.blobs.Get(ctx, doc.StorageKey)
	if err != nil {
		s.log.Error(ctx, "error loading document content", "owner", owner, "name", name, "key", doc.StorageKey, "error", err)
		return nil, common.ErrorInternal
	}
	return content, nil
}

// List returns owner's document names, most recently modified first. An
// owner without documents gets an empty, non-nil slice.
func (s *DocumentService) List(ctx context.Context, owner string) ([]string, error) {
	if owner == "" {
		return nil, common.ErrorValidation
	}

	names, err := s.repomanager.Documents(s.db).ListNames(ctx, owner)
	if err != nil {
		s.log.Error(ctx, "error listing documents", "owner", owner, "error", err)
		return nil, common.ErrorInternal
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}
