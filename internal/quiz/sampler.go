package quiz

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"learnpath/internal/apperr"
	"learnpath/internal/models"
)

// QuestionPool is the read side of a quiz's questions, filtered by type.
type QuestionPool interface {
	CountByType(ctx context.Context, quizID uint, questionType string, excludeIDs []uint) (int64, error)
	SampleByType(ctx context.Context, quizID uint, questionType string, limit int, excludeIDs []uint) ([]uint, error)
}

type Sampler struct {
	pool QuestionPool
}

func NewSampler(pool QuestionPool) *Sampler {
	return &Sampler{pool: pool}
}

// MaxSessionQuestions bounds how many questions one session may draw.
const MaxSessionQuestions = 200

// ValidateParts checks a sampling request without touching storage.
func ValidateParts(parts []models.Part, total int) error {
	if len(parts) == 0 {
		return apperr.InvalidRequest("parts must not be empty")
	}
	sum := 0
	for i, p := range parts {
		if strings.TrimSpace(p.Type) == "" {
			return apperr.InvalidRequest("part %d: type is required", i)
		}
		if p.Count <= 0 {
			return apperr.InvalidRequest("part %d: count must be positive", i)
		}
		// sum never exceeds the cap, so this cannot overflow.
		if p.Count > MaxSessionQuestions-sum {
			return apperr.InvalidRequest("a session may hold at most %d questions", MaxSessionQuestions)
		}
		sum += p.Count
	}
	if total != sum {
		return apperr.InvalidRequest("total %d does not match sum of part counts %d", total, sum)
	}
	return nil
}

// Sample draws each part in ascending order. Ids chosen by earlier parts are
// excluded from later ones. The returned order is the session's question
// order.
func (s *Sampler) Sample(ctx context.Context, quizID uint, parts []models.Part, total int) ([]uint, error) {
	if err := ValidateParts(parts, total); err != nil {
		return nil, err
	}

	ordered := make([]models.Part, len(parts))
	copy(ordered, parts)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	var selected []uint
	seen := make(map[uint]bool)
	for _, p := range ordered {
		qtype := strings.TrimSpace(p.Type)

		available, err := s.pool.CountByType(ctx, quizID, qtype, selected)
		if err != nil {
			return nil, fmt.Errorf("count %q questions: %w", qtype, err)
		}
		if available < int64(p.Count) {
			return nil, apperr.InsufficientPool(qtype, p.Count, int(available))
		}

		ids, err := s.pool.SampleByType(ctx, quizID, qtype, p.Count, selected)
		if err != nil {
			return nil, fmt.Errorf("sample %q questions: %w", qtype, err)
		}
		// The pool can shrink between count and sample.
		if len(ids) < p.Count {
			return nil, apperr.InsufficientPool(qtype, p.Count, len(ids))
		}
		for _, id := range ids[:p.Count] {
			if seen[id] {
				return nil, fmt.Errorf("sample %q questions: duplicate question %d", qtype, id)
			}
			seen[id] = true
			selected = append(selected, id)
		}
	}
	return selected, nil
}
