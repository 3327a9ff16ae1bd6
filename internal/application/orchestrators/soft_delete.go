package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"parky/internal/domain/cascade"
)

// cascadeConcurrency bounds the dependent writes in flight per level.
const cascadeConcurrency = 8

// SoftDeleteTable is the generic access the cascade needs per collection.
type SoftDeleteTable interface {
	MarkDeleted(ctx context.Context, id string, at time.Time) (bool, error)
	IsActive(ctx context.Context, id string) (bool, error)
	ActiveIDsWhere(ctx context.Context, column, value string) ([]string, error)
	AnyActiveWhere(ctx context.Context, column, value string) (bool, error)
	RefValue(ctx context.Context, id, column string) (string, error)
}

// SoftDeleteInput names the record to remove.
type SoftDeleteInput struct {
	Kind cascade.Kind
	ID   string
}

// SoftDeleteResult lists what the cascade touched.
type SoftDeleteResult struct {
	Deleted []cascade.Target // root first, then level by level
	Kept    []cascade.Target // children vetoed by an edge guard
}

// SoftDeleteDeps holds dependencies for SoftDelete.
type SoftDeleteDeps struct {
	Graph  *cascade.Graph
	Tables map[cascade.Kind]SoftDeleteTable
	Now    func() time.Time
}

// ExecuteSoftDelete marks a lot, attendant or student deleted and cascades to its dependents.
// PRE: Kind is a root of the graph; the record exists and is active
// POST: the root is deleted first; each following level is written concurrently and awaited
// INVARIANT: records are only stamped, never removed; a failed dependent write leaves the
// root deleted and is reported as *PartialWriteError
func ExecuteSoftDelete(ctx context.Context, input SoftDeleteInput, deps SoftDeleteDeps) (SoftDeleteResult, error) {
	if err := deps.Graph.CheckRoot(input.Kind); err != nil {
		return SoftDeleteResult{}, invalid(err)
	}
	table, err := deps.table(input.Kind)
	if err != nil {
		return SoftDeleteResult{}, err
	}
	root := cascade.Target{Kind: input.Kind, ID: input.ID}
	now := deps.Now()

	active, err := table.IsActive(ctx, input.ID)
	if err != nil {
		return SoftDeleteResult{}, fmt.Errorf("load %s: %w", root, err)
	}
	if !active {
		return SoftDeleteResult{}, fmt.Errorf("%s: %w", root, ErrNotFound)
	}
	marked, err := table.MarkDeleted(ctx, input.ID, now)
	if err != nil {
		return SoftDeleteResult{}, fmt.Errorf("delete %s: %w", root, err)
	}
	if !marked {
		// deleted by someone else since the IsActive check; their cascade owns the dependents
		return SoftDeleteResult{}, fmt.Errorf("%s: %w", root, ErrNotFound)
	}

	result := SoftDeleteResult{Deleted: []cascade.Target{root}}
	visited := map[cascade.Target]bool{root: true}
	frontier := []cascade.Target{root}

	for len(frontier) > 0 {
		children, kept, err := deps.expand(ctx, frontier, visited)
		result.Kept = append(result.Kept, kept...)
		if err != nil {
			return result, deps.partial(root, result, nil, err)
		}
		if len(children) == 0 {
			break
		}

		written, failed, err := deps.writeLevel(ctx, children, now)
		result.Deleted = append(result.Deleted, written...)
		if err != nil {
			return result, deps.partial(root, result, failed, err)
		}
		frontier = written
	}

	slog.Info("cascade_event", "event", "soft_deleted", "root", root.String(),
		"deleted", len(result.Deleted), "kept", len(result.Kept))
	return result, nil
}

func (d SoftDeleteDeps) table(kind cascade.Kind) (SoftDeleteTable, error) {
	t, ok := d.Tables[kind]
	if !ok {
		return nil, fmt.Errorf("no table registered for %s", kind)
	}
	return t, nil
}

// expand resolves the active, unvisited children of every frontier record.
func (d SoftDeleteDeps) expand(ctx context.Context, frontier []cascade.Target, visited map[cascade.Target]bool) (children, kept []cascade.Target, err error) {
	for _, parent := range frontier {
		for _, edge := range d.Graph.EdgesFrom(parent.Kind) {
			ids, err := d.resolve(ctx, parent, edge)
			if err != nil {
				return children, kept, err
			}
			for _, id := range ids {
				child := cascade.Target{Kind: edge.To, ID: id}
				if visited[child] {
					continue
				}
				if edge.Guard != nil {
					guard, err := d.table(edge.Guard.Kind)
					if err != nil {
						return children, kept, err
					}
					inUse, err := guard.AnyActiveWhere(ctx, edge.Guard.Column, id)
					if err != nil {
						return children, kept, fmt.Errorf("guard %s: %w", child, err)
					}
					if inUse {
						kept = append(kept, child)
						visited[child] = true
						continue
					}
				}
				visited[child] = true
				children = append(children, child)
			}
		}
	}
	return children, kept, nil
}

// resolve applies one edge rule to a parent.
func (d SoftDeleteDeps) resolve(ctx context.Context, parent cascade.Target, edge cascade.Edge) ([]string, error) {
	child, err := d.table(edge.To)
	if err != nil {
		return nil, err
	}
	switch edge.Rule {
	case cascade.RuleReferrers:
		ids, err := child.ActiveIDsWhere(ctx, edge.Column, parent.ID)
		if err != nil {
			return nil, fmt.Errorf("find %s of %s: %w", edge.To, parent, err)
		}
		return ids, nil
	case cascade.RuleReferenced:
		own, err := d.table(parent.Kind)
		if err != nil {
			return nil, err
		}
		ref, err := own.RefValue(ctx, parent.ID, edge.Column)
		if errors.Is(err, ErrNotFound) || ref == "" {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read %s.%s: %w", parent, edge.Column, err)
		}
		active, err := child.IsActive(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("load %s/%s: %w", edge.To, ref, err)
		}
		if !active {
			return nil, nil
		}
		return []string{ref}, nil
	}
	return nil, fmt.Errorf("unknown cascade rule %d", edge.Rule)
}

// writeLevel stamps every target concurrently and waits for all of them.
// Every failure is collected; one failing write does not cancel the others.
func (d SoftDeleteDeps) writeLevel(ctx context.Context, targets []cascade.Target, now time.Time) (written, failed []cascade.Target, err error) {
	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(cascadeConcurrency)
	for _, t := range targets {
		g.Go(func() error {
			table, err := d.table(t.Kind)
			if err == nil {
				_, err = table.MarkDeleted(ctx, t.ID, now)
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, t)
				errs = append(errs, fmt.Errorf("%s: %w", t, err))
				return nil
			}
			written = append(written, t)
			return nil
		})
	}
	_ = g.Wait()
	return written, failed, errors.Join(errs...)
}

func (d SoftDeleteDeps) partial(root cascade.Target, result SoftDeleteResult, failed []cascade.Target, err error) error {
	pe := &PartialWriteError{Op: "soft delete " + root.String(), Err: err}
	for _, t := range result.Deleted {
		pe.Applied = append(pe.Applied, t.String())
	}
	for _, t := range failed {
		pe.Failed = append(pe.Failed, t.String())
	}
	slog.Error("cascade_event", "event", "partial", "root", root.String(),
		"applied", len(pe.Applied), "failed", len(pe.Failed), "error", err)
	return pe
}

// SoftDeleteTables widens a map of concrete tables to the interface the cascade uses.
func SoftDeleteTables[T SoftDeleteTable](tables map[cascade.Kind]T) map[cascade.Kind]SoftDeleteTable {
	out := make(map[cascade.Kind]SoftDeleteTable, len(tables))
	for k, t := range tables {
		out[k] = t
	}
	return out
}
