package memstore

import (
	"context"

	"github.com/studynotion/apiserver/internal/store"
	"github.com/studynotion/apiserver/types"
)

type sectionRepository struct{ h handle }

func (r sectionRepository) Get(ctx context.Context, id int) (types.Section, error) {
	var section types.Section
	err := r.h.do(func(t *tables) error {
		s, ok := t.sections[id]
		if !ok {
			return store.ErrNotFound
		}
		section = s
		section.SubSectionIDs = cloneIDs(s.SubSectionIDs)
		return nil
	})
	return section, err
}

func (r sectionRepository) ListByCourse(ctx context.Context, courseID int) ([]types.Section, error) {
	sections := []types.Section{}
	err := r.h.do(func(t *tables) error {
		c, ok := t.courses[courseID]
		if !ok {
			return nil
		}
		for _, id := range c.SectionIDs {
			if s, ok := t.sections[id]; ok {
				s.SubSectionIDs = cloneIDs(s.SubSectionIDs)
				sections = append(sections, s)
			}
		}
		return nil
	})
	return sections, err
}

func (r sectionRepository) Create(ctx context.Context, section types.Section) (types.Section, error) {
	err := r.h.do(func(t *tables) error {
		c, ok := t.courses[section.CourseID]
		if !ok {
			return store.ErrNotFound
		}
		section.ID = t.id()
		section.SubSectionIDs = []int{}
		t.sections[section.ID] = section
		c.SectionIDs = appendID(c.SectionIDs, section.ID)
		t.courses[c.ID] = c
		return nil
	})
	if err != nil {
		return types.Section{}, err
	}
	section.SubSectionIDs = []int{}
	return section, nil
}

func (r sectionRepository) Update(ctx context.Context, section types.Section) (types.Section, error) {
	err := r.h.do(func(t *tables) error {
		s, ok := t.sections[section.ID]
		if !ok {
			return store.ErrNotFound
		}
		s.Name = section.Name
		t.sections[s.ID] = s
		return nil
	})
	if err != nil {
		return types.Section{}, err
	}
	return section, nil
}

func (r sectionRepository) Delete(ctx context.Context, id int) error {
	return r.h.do(func(t *tables) error {
		s, ok := t.sections[id]
		if !ok {
			return store.ErrNotFound
		}
		delete(t.sections, id)
		if c, ok := t.courses[s.CourseID]; ok {
			c.SectionIDs = removeID(c.SectionIDs, id)
			t.courses[c.ID] = c
		}
		return nil
	})
}

type subSectionRepository struct{ h handle }

func (r subSectionRepository) Get(ctx context.Context, id int) (types.SubSection, error) {
	var sub types.SubSection
	err := r.h.do(func(t *tables) error {
		s, ok := t.subsections[id]
		if !ok {
			return store.ErrNotFound
		}
		sub = s
		return nil
	})
	return sub, err
}

func (r subSectionRepository) ListBySection(ctx context.Context, sectionID int) ([]types.SubSection, error) {
	subs := []types.SubSection{}
	err := r.h.do(func(t *tables) error {
		s, ok := t.sections[sectionID]
		if !ok {
			return nil
		}
		for _, id := range s.SubSectionIDs {
			if sub, ok := t.subsections[id]; ok {
				subs = append(subs, sub)
			}
		}
		return nil
	})
	return subs, err
}

func (r subSectionRepository) Create(ctx context.Context, sub types.SubSection) (types.SubSection, error) {
	err := r.h.do(func(t *tables) error {
		s, ok := t.sections[sub.SectionID]
		if !ok {
			return store.ErrNotFound
		}
		sub.ID = t.id()
		t.subsections[sub.ID] = sub
		s.SubSectionIDs = appendID(s.SubSectionIDs, sub.ID)
		t.sections[s.ID] = s
		return nil
	})
	if err != nil {
		return types.SubSection{}, err
	}
	return sub, nil
}

func (r subSectionRepository) Update(ctx context.Context, sub types.SubSection) (types.SubSection, error) {
	err := r.h.do(func(t *tables) error {
		existing, ok := t.subsections[sub.ID]
		if !ok {
			return store.ErrNotFound
		}
		sub.SectionID = existing.SectionID
		t.subsections[sub.ID] = sub
		return nil
	})
	if err != nil {
		return types.SubSection{}, err
	}
	return sub, nil
}

func (r subSectionRepository) Delete(ctx context.Context, id int) error {
	return r.h.do(func(t *tables) error {
		sub, ok := t.subsections[id]
		if !ok {
			return store.ErrNotFound
		}
		delete(t.subsections, id)
		if s, ok := t.sections[sub.SectionID]; ok {
			s.SubSectionIDs = removeID(s.SubSectionIDs, id)
			t.sections[s.ID] = s
		}
		return nil
	})
}
