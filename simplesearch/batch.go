package simplesearch

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/simplesearch/simplesearch/simplesearch/ops"
)

type BatchOpKind int

const (
	batchPut BatchOpKind = iota
	batchRemove
)

type BatchOp struct {
	Kind       BatchOpKind
	Doc        Document // for put
	Identifier string   // for remove
}

// Batch collects document writes and removals that commit together.
type Batch struct {
	ops []BatchOp
}

func NewBatch() Batch {
	return Batch{ops: make([]BatchOp, 0)}
}

// Put queues a destructive write of doc, as IndexData does.
func (b *Batch) Put(doc Document) error {
	if doc.Identifier == "" {
		return SchemaError("document must contain a non-empty 'identifier'")
	}
	b.ops = append(b.ops, BatchOp{Kind: batchPut, Doc: doc})
	return nil
}

// PutJSON decodes {"identifier", "properties", "fulltext"} and queues it.
func (b *Batch) PutJSON(data []byte) error {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Wrap(ErrSchema, "document json", err)
	}
	return b.Put(doc)
}

func (b *Batch) Remove(identifier string) error {
	if identifier == "" {
		return SchemaError("identifier cannot be empty")
	}
	b.ops = append(b.ops, BatchOp{Kind: batchRemove, Identifier: identifier})
	return nil
}

func (b *Batch) Len() int {
	return len(b.ops)
}

func (b *Batch) Empty() bool {
	return len(b.ops) == 0
}

// Execute applies the batch to ix.
func (b *Batch) Execute(ctx context.Context, ix *Index) (int, error) {
	return ix.Apply(ctx, *b)
}

// Apply runs every operation of b, in order, in one transaction. Columns
// needed by any put are added first. It returns the number of operations
// applied.
func (ix *Index) Apply(ctx context.Context, b Batch) (int, error) {
	if b.Empty() {
		return 0, nil
	}

	prepared := make([]*ops.PutPrepared, len(b.ops))
	var keys []string
	for i, op := range b.ops {
		if op.Kind != batchPut {
			continue
		}
		prep, err := ix.prepare(op.Doc.Identifier, op.Doc.Properties, op.Doc.Fulltext)
		if err != nil {
			return 0, err
		}
		prepared[i] = prep
		keys = append(keys, prep.Columns...)
	}

	err := ix.write(ctx, keys, func(tx *sql.Tx) error {
		for i, op := range b.ops {
			switch op.Kind {
			case batchPut:
				if err := ops.UpsertObject(ctx, tx, ix.adapter, prepared[i]); err != nil {
					return Wrap(ErrSQL, "write properties", err)
				}
				if err := ops.ReplaceFulltext(ctx, tx, ix.adapter, prepared[i]); err != nil {
					return Wrap(ErrSQL, "write fulltext", err)
				}
			case batchRemove:
				if err := ops.DeleteByIdentifier(ctx, tx, ix.adapter, op.Identifier); err != nil {
					return Wrap(ErrSQL, "remove data", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	ix.log.Debug("batch applied", slog.Int("ops", b.Len()))
	return b.Len(), nil
}
