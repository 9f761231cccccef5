package handlers

import (
	"net/http"

	"natours/db"
	"natours/errs"
	"natours/query"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Document is a pointer to a model that knows its own rules
type Document[T any] interface {
	*T
	Validate() error
}

type defaulter interface {
	SetDefaults()
}

// readOnly keys are never taken from a request body
var readOnly = []string{"id", "createdAt", "updatedAt"}

// Resource is the CRUD handler factory shared by every model
type Resource[T any, PT Document[T]] struct {
	Singular string
	Plural   string
	Fields   query.FieldMap

	// NestedParam names the route parameter holding a parent id; lists are
	// filtered on NestedColumn when it is present.
	NestedParam  string
	NestedColumn string

	// ListScope and OneScope add preloads to reads
	ListScope func(*gorm.DB) *gorm.DB
	OneScope  func(*gorm.DB) *gorm.DB

	// Prepare runs before the body is applied to a new or a loaded document
	Prepare func(c *gin.Context, doc PT, b Body) error
	// Complete runs after the body is applied, before validation
	Complete func(c *gin.Context, doc PT) error
	// Written runs after a successful create or update
	Written func(c *gin.Context, doc PT, b Body)
}

func (r *Resource[T, PT]) notFound() error {
	return errs.NotFound("No " + r.Singular + " found with that ID")
}

func (r *Resource[T, PT]) scoped(c *gin.Context, scope func(*gorm.DB) *gorm.DB) *gorm.DB {
	tx := db.Instance.WithContext(c.Request.Context())
	if scope != nil {
		tx = scope(tx)
	}
	return tx
}

func (r *Resource[T, PT]) load(c *gin.Context, id uint64, scope func(*gorm.DB) *gorm.DB) (PT, error) {
	doc := PT(new(T))
	if err := r.scoped(c, scope).First(doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, r.notFound()
		}
		return nil, err
	}
	return doc, nil
}

func (r *Resource[T, PT]) GetAll(c *gin.Context) {
	features, err := query.Parse(c.Request.URL.Query(), r.Fields)
	if err != nil {
		fail(c, err)
		return
	}
	tx := r.scoped(c, r.ListScope).Model(PT(new(T)))
	if r.NestedParam != "" && c.Param(r.NestedParam) != "" {
		parentID, err := paramID(c, r.NestedParam)
		if err != nil {
			fail(c, err)
			return
		}
		tx = tx.Where(clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: r.NestedColumn}, Value: parentID})
	}
	docs := []T{}
	if err = features.Apply(tx).Find(&docs).Error; err != nil {
		fail(c, err)
		return
	}
	projected, err := features.Project(docs)
	if err != nil {
		fail(c, err)
		return
	}
	sendList(c, r.Plural, projected, len(docs))
}

func (r *Resource[T, PT]) GetOne(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	doc, err := r.load(c, id, r.OneScope)
	if err != nil {
		fail(c, err)
		return
	}
	sendOne(c, http.StatusOK, r.Singular, doc)
}

func (r *Resource[T, PT]) CreateOne(c *gin.Context) {
	b, err := readBody(c)
	if err != nil {
		fail(c, err)
		return
	}
	doc := PT(new(T))
	if d, ok := any(doc).(defaulter); ok {
		d.SetDefaults()
	}
	if err = r.apply(c, doc, b.without(readOnly...)); err != nil {
		fail(c, err)
		return
	}
	if err = db.Instance.WithContext(c.Request.Context()).Create(doc).Error; err != nil {
		fail(c, err)
		return
	}
	if r.Written != nil {
		r.Written(c, doc, b)
	}
	sendOne(c, http.StatusCreated, r.Singular, doc)
}

// UpdateOne merges the body onto the stored document, validates the result
// and stores it.
func (r *Resource[T, PT]) UpdateOne(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	doc, err := r.load(c, id, nil)
	if err != nil {
		fail(c, err)
		return
	}
	b, err := readBody(c)
	if err != nil {
		fail(c, err)
		return
	}
	if err = r.apply(c, doc, b.without(readOnly...)); err != nil {
		fail(c, err)
		return
	}
	if err = db.Instance.WithContext(c.Request.Context()).Omit(clause.Associations).Save(doc).Error; err != nil {
		fail(c, err)
		return
	}
	if r.Written != nil {
		r.Written(c, doc, b)
	}
	updated, err := r.load(c, id, r.OneScope)
	if err != nil {
		fail(c, err)
		return
	}
	sendOne(c, http.StatusOK, r.Singular, updated)
}

// DeleteOne loads the document first so that delete hooks see it
func (r *Resource[T, PT]) DeleteOne(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	doc, err := r.load(c, id, nil)
	if err != nil {
		fail(c, err)
		return
	}
	if err = db.Instance.WithContext(c.Request.Context()).Delete(doc).Error; err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Resource[T, PT]) apply(c *gin.Context, doc PT, b Body) error {
	if r.Prepare != nil {
		if err := r.Prepare(c, doc, b); err != nil {
			return err
		}
	}
	if err := b.decodeInto(doc); err != nil {
		return err
	}
	if r.Complete != nil {
		if err := r.Complete(c, doc); err != nil {
			return err
		}
	}
	return doc.Validate()
}
