package schema

import (
	"github.com/arthur-debert/nanograph/types"
)

// Instance is a typed model instance built by Model.New. Attribute fields
// hold values; relation fields hold related instances.
type Instance struct {
	model *Model
	props map[string]any
}

// Model returns the model the instance was made from
func (i *Instance) Model() *Model {
	return i.model
}

// ID returns the identity value
func (i *Instance) ID() types.Value {
	return i.Get(i.model.PrimaryKey())
}

// Get returns the value of an attribute field, or Missing when field is
// unknown or a relation
func (i *Instance) Get(field string) types.Value {
	v, _ := i.props[field].(types.Value)
	return v
}

// Related returns the instances of a relation field. Unloaded relations are
// empty.
func (i *Instance) Related(field string) []*Instance {
	related, _ := i.props[field].([]*Instance)
	return related
}

// Native converts the instance into plain maps, recursing into relations
func (i *Instance) Native() map[string]any {
	out := make(map[string]any, len(i.props))
	for name, prop := range i.props {
		switch p := prop.(type) {
		case types.Value:
			if !p.IsMissing() {
				out[name] = p.Native()
			}
		case []*Instance:
			items := make([]any, len(p))
			for j, related := range p {
				items[j] = related.Native()
			}
			out[name] = items
		default:
			out[name] = p
		}
	}
	return out
}
