package memstore

import (
	"context"
	"time"

	"github.com/studynotion/apiserver/internal/store"
	"github.com/studynotion/apiserver/types"
)

type userRepository struct{ h handle }

func (r userRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	var user types.User
	err := r.h.do(func(t *tables) error {
		u, ok := t.users[id]
		if !ok {
			return store.ErrNotFound
		}
		user = u
		user.Courses = cloneIDs(u.Courses)
		return nil
	})
	return user, err
}

func (r userRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	var user types.User
	err := r.h.do(func(t *tables) error {
		for _, u := range t.users {
			if u.Email == email {
				user = u
				user.Courses = cloneIDs(u.Courses)
				return nil
			}
		}
		return store.ErrNotFound
	})
	return user, err
}

func (r userRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	err := r.h.do(func(t *tables) error {
		for _, u := range t.users {
			if u.Email == user.Email {
				return store.ErrDuplicate
			}
		}
		now := time.Now()
		user.ID = t.id()
		user.CreatedAt = now
		user.UpdatedAt = now
		user.Courses = cloneIDs(user.Courses)
		t.users[user.ID] = user
		return nil
	})
	if err != nil {
		return types.User{}, err
	}
	return user, nil
}

func (r userRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	return r.h.do(func(t *tables) error {
		u, ok := t.users[id]
		if !ok {
			return store.ErrNotFound
		}
		u.PasswordHash = passwordHash
		u.UpdatedAt = time.Now()
		t.users[id] = u
		return nil
	})
}

func (r userRepository) AddCourse(ctx context.Context, userID, courseID int) error {
	return r.h.do(func(t *tables) error {
		u, ok := t.users[userID]
		if !ok {
			return store.ErrNotFound
		}
		u.Courses = appendID(u.Courses, courseID)
		t.users[userID] = u
		return nil
	})
}

func (r userRepository) RemoveCourse(ctx context.Context, userID, courseID int) error {
	return r.h.do(func(t *tables) error {
		u, ok := t.users[userID]
		if !ok {
			return nil
		}
		u.Courses = removeID(u.Courses, courseID)
		t.users[userID] = u
		return nil
	})
}

type profileRepository struct{ h handle }

func (r profileRepository) Get(ctx context.Context, id int) (types.Profile, error) {
	var profile types.Profile
	err := r.h.do(func(t *tables) error {
		p, ok := t.profiles[id]
		if !ok {
			return store.ErrNotFound
		}
		profile = p
		return nil
	})
	return profile, err
}

func (r profileRepository) Create(ctx context.Context, profile types.Profile) (types.Profile, error) {
	err := r.h.do(func(t *tables) error {
		profile.ID = t.id()
		t.profiles[profile.ID] = profile
		return nil
	})
	return profile, err
}

type codeRepository struct{ h handle }

func (r codeRepository) Upsert(ctx context.Context, code types.OneTimeCode) error {
	return r.h.do(func(t *tables) error {
		t.codes[code.Email] = code
		return nil
	})
}

func (r codeRepository) Get(ctx context.Context, email string) (types.OneTimeCode, error) {
	var code types.OneTimeCode
	err := r.h.do(func(t *tables) error {
		c, ok := t.codes[email]
		if !ok {
			return store.ErrNotFound
		}
		code = c
		return nil
	})
	return code, err
}

func (r codeRepository) Delete(ctx context.Context, email string) error {
	return r.h.do(func(t *tables) error {
		if _, ok := t.codes[email]; !ok {
			return store.ErrNotFound
		}
		delete(t.codes, email)
		return nil
	})
}
