package traversal

import (
	"fmt"

	"github.com/DrSkyle/graphwalk/pkg/graph"
)

// NormalizeStart maps a start value to a vertex id. An empty id means the
// traversal produces nothing; the warning, if any, says why. Objects
// without _id produce nothing and no warning.
func NormalizeStart(value any) (string, *Warning) {
	switch v := value.(type) {
	case string:
		if _, _, err := graph.ParseID(v); err != nil {
			return "", invalidStart(fmt.Sprintf("invalid start vertex id %q", v))
		}
		return v, nil
	case graph.Document:
		return startFromObject(v)
	case map[string]any:
		return startFromObject(v)
	case nil:
		return "", invalidStart("start vertex is null")
	case []any:
		return "", invalidStart("start vertex must be a string or an object, got array")
	default:
		return "", invalidStart(fmt.Sprintf("start vertex must be a string or an object, got %T", value))
	}
}

func startFromObject(obj map[string]any) (string, *Warning) {
	raw, ok := obj[graph.AttrID]
	if !ok {
		return "", nil
	}
	id, ok := raw.(string)
	if !ok {
		return "", invalidStart(fmt.Sprintf("start vertex _id must be a string, got %T", raw))
	}
	return NormalizeStart(id)
}

func invalidStart(msg string) *Warning {
	return &Warning{Code: WarnInvalidStart, Message: msg}
}
