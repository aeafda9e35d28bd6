package persistence

import (
	"strings"

	"github.com/asaidimu/go-loom/core/schema"
)

// deleteMarker is the value type of DeleteField.
type deleteMarker struct{}

// DeleteField is the merge-patch value marking a key for deletion. Payload
// builders place it under the keys to remove; scan-based data sources honor it
// in ApplyPayload, while backends with a native deletion primitive translate
// it (for example to a $unset document).
var DeleteField = deleteMarker{}

// IsDeleteMarker reports whether a payload value is the deletion marker.
func IsDeleteMarker(v any) bool {
	_, ok := v.(deleteMarker)
	return ok
}

// ApplyPayload merges a write payload into a document in place. Dotted keys
// address entries of nested map fields, creating intermediate maps as needed,
// and sibling keys are left untouched. Values equal to DeleteField remove the
// addressed key instead of setting it.
func ApplyPayload(doc schema.Document, payload schema.Document) {
	for key, value := range payload {
		if !strings.Contains(key, ".") {
			if IsDeleteMarker(value) {
				delete(doc, key)
			} else {
				doc[key] = value
			}
			continue
		}

		path := strings.Split(key, ".")
		target := map[string]any(doc)
		missing := false
		for _, segment := range path[:len(path)-1] {
			next, ok := target[segment].(map[string]any)
			if !ok {
				if IsDeleteMarker(value) {
					// Nothing to delete along a missing path.
					missing = true
					break
				}
				next = map[string]any{}
				target[segment] = next
			}
			target = next
		}
		if missing {
			continue
		}
		leaf := path[len(path)-1]
		if IsDeleteMarker(value) {
			delete(target, leaf)
		} else {
			target[leaf] = value
		}
	}
}

// BuildAddEmbedIDs is the default AddEmbedIDs payload builder: each id becomes
// a dotted key under the embed field mapped to a "present" marker.
func BuildAddEmbedIDs(field string, ids []string) schema.Document {
	patch := make(schema.Document, len(ids))
	for _, id := range ids {
		patch[field+"."+id] = true
	}
	return patch
}

// BuildRemoveEmbedIDs is the default RemoveEmbedIDs payload builder: each id
// becomes a dotted key mapped to the deletion marker, and no other key is
// touched.
func BuildRemoveEmbedIDs(field string, ids []string) schema.Document {
	patch := make(schema.Document, len(ids))
	for _, id := range ids {
		patch[field+"."+id] = DeleteField
	}
	return patch
}

// HasEmbedID reports whether a document's embedded-ids map field contains the
// given id as a key. Used by scan-based data sources to answer embed queries.
func HasEmbedID(doc schema.Document, field, id string) bool {
	embedded, ok := doc[field].(map[string]any)
	if !ok {
		return false
	}
	_, present := embedded[id]
	return present
}
