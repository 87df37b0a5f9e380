// Package memstore is an in-memory implementation of the service store,
// used for local runs without Postgres and in tests.
package memstore

import (
	"context"
	"sync"

	"github.com/studynotion/apiserver/internal/services"
	"github.com/studynotion/apiserver/types"
)

// DB holds every table in memory behind a single mutex.
type DB struct {
	mu   sync.Mutex
	data *tables
}

type tables struct {
	nextID      int
	users       map[int]types.User
	profiles    map[int]types.Profile
	codes       map[string]types.OneTimeCode
	courses     map[int]types.Course
	categories  map[int]types.Category
	sections    map[int]types.Section
	subsections map[int]types.SubSection
	ratings     map[int]types.RatingAndReview
	progress    map[int]types.CourseProgress
	assets      map[int]types.OrphanedAsset
}

func New() *DB {
	return &DB{data: newTables()}
}

func newTables() *tables {
	return &tables{
		users:       make(map[int]types.User),
		profiles:    make(map[int]types.Profile),
		codes:       make(map[string]types.OneTimeCode),
		courses:     make(map[int]types.Course),
		categories:  make(map[int]types.Category),
		sections:    make(map[int]types.Section),
		subsections: make(map[int]types.SubSection),
		ratings:     make(map[int]types.RatingAndReview),
		progress:    make(map[int]types.CourseProgress),
		assets:      make(map[int]types.OrphanedAsset),
	}
}

func (t *tables) id() int {
	t.nextID++
	return t.nextID
}

func (t *tables) clone() *tables {
	c := newTables()
	c.nextID = t.nextID
	for k, v := range t.users {
		v.Courses = cloneIDs(v.Courses)
		c.users[k] = v
	}
	for k, v := range t.profiles {
		c.profiles[k] = v
	}
	for k, v := range t.codes {
		c.codes[k] = v
	}
	for k, v := range t.courses {
		c.courses[k] = copyCourse(v)
	}
	for k, v := range t.categories {
		v.Courses = cloneIDs(v.Courses)
		c.categories[k] = v
	}
	for k, v := range t.sections {
		v.SubSectionIDs = cloneIDs(v.SubSectionIDs)
		c.sections[k] = v
	}
	for k, v := range t.subsections {
		c.subsections[k] = v
	}
	for k, v := range t.ratings {
		c.ratings[k] = v
	}
	for k, v := range t.progress {
		v.CompletedVideos = cloneIDs(v.CompletedVideos)
		c.progress[k] = v
	}
	for k, v := range t.assets {
		c.assets[k] = v
	}
	return c
}

// handle runs table operations either under the DB mutex or, inside a
// transaction, with the mutex already held.
type handle struct {
	db   *DB
	inTx bool
}

func (h handle) do(fn func(t *tables) error) error {
	if !h.inTx {
		h.db.mu.Lock()
		defer h.db.mu.Unlock()
	}
	return fn(h.db.data)
}

func (db *DB) repos(inTx bool) services.Repos {
	h := handle{db: db, inTx: inTx}
	return services.Repos{
		Users:       userRepository{h},
		Profiles:    profileRepository{h},
		Codes:       codeRepository{h},
		Courses:     courseRepository{h},
		Categories:  categoryRepository{h},
		Sections:    sectionRepository{h},
		SubSections: subSectionRepository{h},
		Ratings:     ratingRepository{h},
		Progress:    progressRepository{h},
		Assets:      assetRepository{h},
	}
}

// Repos returns repositories that lock per call.
func (db *DB) Repos() services.Repos {
	return db.repos(false)
}

// InTx runs fn with exclusive access to the tables. Changes made by fn are
// discarded when it returns an error.
func (db *DB) InTx(ctx context.Context, fn func(tx services.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	snapshot := db.data.clone()
	if err := fn(db.repos(true)); err != nil {
		db.data = snapshot
		return err
	}
	return nil
}

func cloneIDs(ids []int) []int {
	out := make([]int, len(ids))
	copy(out, ids)
	return out
}

func cloneStrings(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func appendID(ids []int, id int) []int {
	for _, v := range ids {
		if v == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeID(ids []int, id int) []int {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
