// Package rotation picks the best-readable orientation of a card image by
// rendering it at the four right angles and asking the model to score each.
package rotation

import (
	"context"
	"log/slog"

	"github.com/starford/mannaz/internal/imaging"
	"github.com/starford/mannaz/internal/models"
)

// Scorer rates the readability of an image at its current orientation on a
// 0-10 scale. *vision.Client satisfies this; tests script it.
type Scorer interface {
	Score(ctx context.Context, data []byte, mimeType string) (int, error)
}

// Selector drives the rotator and scorer across all four candidate angles.
type Selector struct {
	scorer Scorer
	logger *slog.Logger
}

// NewSelector creates a rotation selector.
func NewSelector(scorer Scorer, logger *slog.Logger) *Selector {
	return &Selector{scorer: scorer, logger: logger}
}

// SelectBest probes 0, 90, 180 and 270 degrees in that fixed order, four
// sequential inference calls, and returns the winning candidate. Only a
// strictly greater score displaces the current best, so ties keep the
// earlier angle; the initial best of -1 makes 0 degrees a valid fallback
// even when every score comes back 0. The 0-degree candidate carries the
// original buffer, never a re-encode.
//
// A failed score call degrades that angle to 0 instead of aborting: the
// probe is advisory, and a transient API error must not sink the image.
// Rotation render/encode failures remain fatal.
func (s *Selector) SelectBest(ctx context.Context, data []byte, mimeType string) (models.RotationCandidate, error) {
	best := models.RotationCandidate{Angle: 0, Data: data, MIMEType: mimeType, Score: -1}

	for _, angle := range imaging.Angles {
		buf, mt, err := imaging.Rotate(data, mimeType, angle)
		if err != nil {
			return models.RotationCandidate{}, err
		}

		score, err := s.scorer.Score(ctx, buf, mt)
		if err != nil {
			s.logger.Warn("rotation: score failed, using 0",
				slog.Int("angle", angle),
				slog.String("error", err.Error()))
			score = 0
		}
		s.logger.Debug("rotation: scored candidate",
			slog.Int("angle", angle),
			slog.Int("score", score))

		if score > best.Score {
			best = models.RotationCandidate{Angle: angle, Data: buf, MIMEType: mt, Score: score}
		}
	}

	return best, nil
}
