package value

import (
	"fmt"
	"reflect"
)

// Resource is a native handle owned by the traced runtime, such as an open
// stream or a database link. Resources have no JSON representation.
type Resource struct {
	ID   int64
	Kind string
}

func (r Resource) String() string {
	return fmt.Sprintf("resource(%d) of type (%s)", r.ID, r.Kind)
}

var resourceType = reflect.TypeOf(Resource{})

func resourceFromValue(v reflect.Value) (Resource, bool) {
	if v.Type() != resourceType {
		return Resource{}, false
	}

	return Resource{
		ID:   v.Field(0).Int(),
		Kind: v.Field(1).String(),
	}, true
}
