package usecase

import (
	"context"
	"strings"

	"github.com/salescoach/backend/internal/domain"
)

// ScriptService searches the Q&A and objection-handling scripts
type ScriptService struct {
	repo domain.ScriptRepository
}

// NewScriptService creates a new script service
func NewScriptService(repo domain.ScriptRepository) *ScriptService {
	return &ScriptService{repo: repo}
}

// Search returns scripts in the given category whose prompt, response or tags contain
// every word of query. Empty filters match everything.
func (s *ScriptService) Search(ctx context.Context, category, query string) ([]domain.SalesScript, error) {
	scripts, err := s.repo.Scripts(ctx)
	if err != nil {
		return nil, err
	}

	words := strings.Fields(strings.ToLower(query))
	out := []domain.SalesScript{}
	for _, sc := range scripts {
		if category != "" && !strings.EqualFold(sc.Category, category) {
			continue
		}
		if !containsAllWords(scriptText(sc), words) {
			continue
		}
		out = append(out, sc)
	}
	return out, nil
}

func scriptText(sc domain.SalesScript) string {
	return strings.ToLower(sc.Prompt + " " + sc.Response + " " + strings.Join(sc.Tags, " "))
}

func containsAllWords(text string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}
