package syncx

import (
	"fmt"
	"sort"
	"time"

	"github.com/ddanilovs/campuslink/internal/models"
)

// ConflictError reports a conflict that the Manual strategy refuses to
// auto-resolve. It carries both versions so the caller can present them.
type ConflictError struct {
	Local  models.Document
	Remote models.Document
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("document %s: conflict requires manual resolution", e.Local.ID)
}

// Resolve reconciles one local and one remote view of the same document.
// It is a pure function: no I/O, inputs are not mutated.
//
// A clean local counterpart never conflicts: the remote document is taken
// as-is and marked synced, regardless of strategy or timestamps.
func Resolve(local, remote models.Document, strategy Strategy, now time.Time) (models.Document, error) {
	if !local.Dirty {
		return takeRemote(remote, now), nil
	}

	switch strategy {
	case ServerWins:
		return takeRemote(remote, now), nil
	case ClientWins:
		local.Dirty = true
		return local, nil
	case LastWriteWins:
		// Strict > so a tie converges toward the source of truth.
		if local.ModifiedAt > remote.ModifiedAt {
			local.Dirty = true
			return local, nil
		}
		return takeRemote(remote, now), nil
	case Manual:
		return models.Document{}, &ConflictError{Local: local, Remote: remote}
	default:
		return models.Document{}, fmt.Errorf("unknown strategy %v", strategy)
	}
}

// Merge reconciles two document sets into one record per distinct id:
//
//   - remote documents with a dirty local counterpart go through Resolve;
//   - remote documents with a clean or absent local counterpart are taken
//     as-is and marked synced;
//   - local-only documents are retained unchanged (not yet pushed, or
//     tombstoned locally).
//
// The result is sorted by id; Merge is idempotent for fixed inputs.
func Merge(local, remote []models.Document, strategy Strategy, now time.Time) ([]models.Document, error) {
	byID := make(map[string]models.Document, len(local))
	for _, d := range local {
		byID[d.ID] = d
	}

	merged := make([]models.Document, 0, len(local)+len(remote))
	seen := make(map[string]struct{}, len(remote))

	for _, r := range remote {
		seen[r.ID] = struct{}{}
		l, ok := byID[r.ID]
		if !ok || !l.Dirty {
			merged = append(merged, takeRemote(r, now))
			continue
		}
		resolved, err := Resolve(l, r, strategy, now)
		if err != nil {
			return nil, err
		}
		merged = append(merged, resolved)
	}

	for _, l := range local {
		if _, ok := seen[l.ID]; !ok {
			merged = append(merged, l)
		}
	}

	sort.Slice(merged, func(i, j int) bool { return merged[i].ID < merged[j].ID })
	return merged, nil
}

func takeRemote(remote models.Document, now time.Time) models.Document {
	remote.MarkSynced(now)
	return remote
}
