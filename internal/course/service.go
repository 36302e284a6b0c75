// AngelaMos | 2026
// service.go

package course

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
)

type Service struct {
	repo      Repository
	validator *validator.Validate
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:      repo,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Course, error) {
	if err := core.Validate(s.validator, "create course", in); err != nil {
		return nil, err
	}

	c := &Course{
		ID:      uuid.New().String(),
		Code:    in.Code,
		Name:    in.Name,
		Faculty: in.Faculty,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Course, error) {
	return s.repo.GetByID(ctx, id)
}

// CoursesByIDs returns the subset of ids that name existing courses.
func (s *Service) CoursesByIDs(ctx context.Context, ids []string) ([]Course, error) {
	return s.repo.GetByIDs(ctx, dedupe(ids))
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
