// AngelaMos | 2026
// courses.go

package memstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/carterperez-dev/templates/campus-market/internal/core"
	"github.com/carterperez-dev/templates/campus-market/internal/course"
)

type courseRepo struct {
	s *Store
}

func (s *Store) Courses() course.Repository {
	return &courseRepo{s: s}
}

func (r *courseRepo) Create(ctx context.Context, c *course.Course) error {
	return r.s.write(ctx, false, func(d *data) error {
		for _, existing := range d.courses {
			if existing.Code == c.Code {
				return fmt.Errorf("create course: %w: %w", core.ErrConflict, core.ErrDuplicateKey)
			}
		}
		d.courses[c.ID] = *c
		return nil
	})
}

func (r *courseRepo) GetByID(_ context.Context, id string) (*course.Course, error) {
	var out *course.Course
	err := r.s.read(false, func(d *data) error {
		c, ok := d.courses[id]
		if !ok {
			return fmt.Errorf("get course: %w", core.ErrNotFound)
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *courseRepo) GetByIDs(_ context.Context, ids []string) ([]course.Course, error) {
	out := []course.Course{}
	_ = r.s.read(false, func(d *data) error {
		for _, id := range ids {
			if c, ok := d.courses[id]; ok {
				out = append(out, c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
