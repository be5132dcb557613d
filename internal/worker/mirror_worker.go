// Package worker replicates ledger documents from the primary store into a
// mirror store as change messages arrive.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"butce/internal/amqp"
	"butce/internal/cache"
	"butce/internal/log"
	"butce/internal/store"
)

type (
	// Source is the primary store the worker reads from.
	Source interface {
		store.Getter
		store.Lister
	}

	// Sink is the mirror the worker writes to.
	Sink interface {
		store.Lister
		store.Putter
		store.Remover
	}
)

// ResyncStats counts what a full resync did.
type ResyncStats struct {
	Copied  int
	Removed int
}

type MirrorWorker struct {
	primary Source
	mirror  Sink
	seen    *cache.LRUCache[time.Time]
	logger  *log.Logger
}

// NewMirrorWorker builds a worker. seen remembers applied message ids so a
// redelivered message is not applied twice.
func NewMirrorWorker(primary Source, mirror Sink, seen *cache.LRUCache[time.Time], logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{
		primary: primary,
		mirror:  mirror,
		seen:    seen,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// HandleChange applies one change message. Returning an error requeues it.
func (w *MirrorWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	if w.seen != nil && w.seen.Contains(msg.MessageID) {
		w.logger.DebugContext(ctx, "Skipping duplicate change message", log.FieldMessageID, msg.MessageID)
		return nil
	}

	c := store.Collection(msg.Collection)
	if !c.Valid() {
		// Requeueing cannot fix this one.
		w.logger.WarnContext(ctx, "Dropping change message for unknown collection",
			log.FieldMessageID, msg.MessageID,
			log.FieldCollection, msg.Collection)
		return nil
	}

	var err error
	switch msg.Op {
	case amqp.OpCreate, amqp.OpUpdate:
		err = w.copyDocument(ctx, c, msg.DocumentID)
	case amqp.OpDelete:
		err = w.mirror.Remove(ctx, c, msg.DocumentID)
	default:
		err = fmt.Errorf("unknown op %q", msg.Op)
	}
	if err != nil {
		return fmt.Errorf("mirror %s %s/%s: %w", msg.Op, c, msg.DocumentID, err)
	}

	if w.seen != nil {
		w.seen.Set(msg.MessageID, time.Now())
	}
	w.logger.InfoContext(ctx, "Mirrored change",
		log.FieldMessageID, msg.MessageID,
		log.FieldOperation, msg.Op,
		log.FieldCollection, string(c),
		log.FieldDocumentID, msg.DocumentID)
	return nil
}

// copyDocument writes the primary's current version of a document to the
// mirror. A document already gone from the primary is removed instead.
func (w *MirrorWorker) copyDocument(ctx context.Context, c store.Collection, id string) error {
	doc, err := w.primary.Get(ctx, c, id)
	if errors.Is(err, store.ErrNotFound) {
		return w.mirror.Remove(ctx, c, id)
	}
	if err != nil {
		return fmt.Errorf("read primary: %w", err)
	}
	return w.mirror.Put(ctx, c, id, doc.Fields)
}

// Resync copies every primary document into the mirror and removes mirror
// documents the primary no longer has. It recovers messages lost while the
// worker was down.
func (w *MirrorWorker) Resync(ctx context.Context) error {
	var total ResyncStats
	for _, c := range store.Collections() {
		stats, err := w.resyncCollection(ctx, c)
		total.Copied += stats.Copied
		total.Removed += stats.Removed
		if err != nil {
			return fmt.Errorf("resync %s: %w", c, err)
		}
	}

	w.logger.InfoContext(ctx, "Resync completed",
		log.FieldOperation, log.OpSync,
		"copied", total.Copied,
		"removed", total.Removed)
	return nil
}

func (w *MirrorWorker) resyncCollection(ctx context.Context, c store.Collection) (ResyncStats, error) {
	var stats ResyncStats

	docs, err := w.primary.List(ctx, c, store.Query{})
	if err != nil {
		return stats, fmt.Errorf("list primary: %w", err)
	}
	keep := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := w.mirror.Put(ctx, c, d.ID, d.Fields); err != nil {
			return stats, fmt.Errorf("put %s: %w", d.ID, err)
		}
		keep[d.ID] = struct{}{}
		stats.Copied++
	}

	mirrored, err := w.mirror.List(ctx, c, store.Query{})
	if err != nil {
		return stats, fmt.Errorf("list mirror: %w", err)
	}
	for _, d := range mirrored {
		if _, ok := keep[d.ID]; ok {
			continue
		}
		if err := w.mirror.Remove(ctx, c, d.ID); err != nil {
			return stats, fmt.Errorf("remove %s: %w", d.ID, err)
		}
		stats.Removed++
	}
	return stats, nil
}
