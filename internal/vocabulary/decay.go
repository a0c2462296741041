package vocabulary

import (
	"context"
	"errors"

	"github.com/example/wordmemo/internal/database"
	"github.com/example/wordmemo/internal/events"
	sr "github.com/example/wordmemo/internal/spaced_repetition"
	"github.com/example/wordmemo/pkg/models"
)

// errNoLongerDecaying aborts an UpdateOne when the stored state changed
// between the scan and the write.
var errNoLongerDecaying = errors.New("word no longer qualifies for decay")

// DecaySweep downgrades every word that has been forgotten. A failure on one
// word is logged and the sweep continues; failed words are not reported.
// Words already at LevelNew are rewritten too, which refreshes their
// schedule. One batched event names all downgraded words.
func (s *Service) DecaySweep(ctx context.Context) ([]string, error) {
	words, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var downgraded []string
	for _, w := range words {
		if ctx.Err() != nil {
			break
		}
		if !sr.ShouldDowngrade(&w.MemoryState, s.now(), s.decayPolicy) {
			continue
		}

		_, err := s.store.UpdateOne(ctx, w.Word, func(stored *models.Word) error {
			now := s.now()
			if !sr.ShouldDowngrade(&stored.MemoryState, now, s.decayPolicy) {
				return errNoLongerDecaying
			}
			sr.ApplyDecay(&stored.MemoryState, now)
			stored.UpdatedDate = now
			return nil
		})
		if err != nil {
			if !errors.Is(err, errNoLongerDecaying) && !isNotFound(err) {
				s.log.Error("failed to downgrade word", "word", w.Word, "error", err)
			}
			continue
		}
		downgraded = append(downgraded, w.Word)
	}

	if len(downgraded) > 0 {
		s.log.Info("downgraded forgotten words", "count", len(downgraded), "words", downgraded)
		s.events.Publish(ctx, events.ReasonDecay, downgraded...)
	}
	return downgraded, ctx.Err()
}

func isNotFound(err error) bool {
	return errors.Is(err, database.ErrWordNotFound)
}
