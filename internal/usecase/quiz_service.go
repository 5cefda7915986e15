package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/salescoach/backend/internal/domain"
)

// QuizService serves training questions and grades answers
type QuizService struct {
	repo   domain.QuizRepository
	logger zerolog.Logger
}

// NewQuizService creates a new quiz service
func NewQuizService(repo domain.QuizRepository, logger zerolog.Logger) *QuizService {
	return &QuizService{repo: repo, logger: logger.With().Str("component", "quiz").Logger()}
}

// Questions lists questions without their answers. An empty category matches all;
// limit <= 0 means no limit.
func (s *QuizService) Questions(ctx context.Context, category string, limit int) ([]domain.QuizPrompt, error) {
	questions, err := s.repo.Questions(ctx)
	if err != nil {
		return nil, err
	}

	prompts := []domain.QuizPrompt{}
	for _, q := range questions {
		if category != "" && !strings.EqualFold(q.Category, category) {
			continue
		}
		prompts = append(prompts, q.Prompt())
		if limit > 0 && len(prompts) == limit {
			break
		}
	}
	return prompts, nil
}

// Grade scores a submission. Questions are graded in file order; an out-of-range
// selection is simply wrong.
func (s *QuizService) Grade(ctx context.Context, submission domain.QuizSubmission) (domain.QuizResult, error) {
	if len(submission.Answers) == 0 {
		return domain.QuizResult{}, fmt.Errorf("%w: no answers submitted", domain.ErrInvalidRequest)
	}

	questions, err := s.repo.Questions(ctx)
	if err != nil {
		return domain.QuizResult{}, err
	}

	known := make(map[string]bool, len(questions))
	for _, q := range questions {
		known[q.ID] = true
	}
	for id := range submission.Answers {
		if !known[id] {
			return domain.QuizResult{}, fmt.Errorf("%w: unknown question %q", domain.ErrInvalidRequest, id)
		}
	}

	result := domain.QuizResult{Grades: []domain.QuizGrade{}}
	for _, q := range questions {
		selected, ok := submission.Answers[q.ID]
		if !ok {
			continue
		}
		grade := domain.QuizGrade{
			QuestionID:  q.ID,
			Selected:    selected,
			Correct:     selected == q.Answer,
			Answer:      q.Answer,
			Explanation: q.Explanation,
		}
		if grade.Correct {
			result.Correct++
		}
		result.Grades = append(result.Grades, grade)
	}
	result.Total = len(result.Grades)
	result.Score = math.Round(float64(result.Correct)/float64(result.Total)*1000) / 10

	s.logger.Info().Int("total", result.Total).Int("correct", result.Correct).Msg("quiz graded")
	return result, nil
}
