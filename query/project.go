package query

import (
	"encoding/json"
)

// Project trims every serialized document to the requested fields, or drops
// the excluded ones. The id is always kept. Without a projection docs is
// returned as is.
func (f *Features) Project(docs interface{}) (interface{}, error) {
	if len(f.fields) == 0 && len(f.excluded) == 0 {
		return docs, nil
	}
	keep := map[string]bool{"id": true}
	for _, name := range f.fields {
		keep[name] = true
	}
	drop := map[string]bool{}
	for _, name := range f.excluded {
		drop[name] = true
	}
	raw, err := json.Marshal(docs)
	if err != nil {
		return nil, err
	}
	var items []map[string]json.RawMessage
	if err = json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	for _, item := range items {
		for key := range item {
			if (len(f.fields) > 0 && !keep[key]) || drop[key] {
				delete(item, key)
			}
		}
	}
	return items, nil
}
