package tsz

import "sync"

// Entity identifies one set of entity labels that metrics can be recorded
// against (spec.md §4.C). Entities are plain values: creating one does not
// register anything with the store, it only happens the first time a
// Metric bound to that entity is actually used.
type Entity struct {
	fields FieldMap
	view   FieldMapView
}

// NewEntity builds an entity from parallel name/value slices.
func NewEntity(labelNames []string, labelValues []FieldValue) *Entity {
	fields := NewFieldMap(labelNames, labelValues)
	return &Entity{fields: fields, view: NewFieldMapView(&fields)}
}

// Labels returns the entity's label map.
func (e *Entity) Labels() FieldMap { return e.fields }

var (
	defaultEntityOnce sync.Once
	defaultEntity     *Entity
)

// DefaultEntity returns the process-wide entity with no labels, used by
// metrics that do not specify one explicitly (spec.md §4.C "the default
// entity represents the current process").
func DefaultEntity() *Entity {
	defaultEntityOnce.Do(func() {
		fields := EmptyFieldMap()
		defaultEntity = &Entity{fields: fields, view: NewFieldMapView(&fields)}
	})
	return defaultEntity
}
