package profile

import (
	"encoding/json"
	"sort"
)

// Key addresses one value in a snapshot. Location is empty for Main
// resources.
type Key struct {
	Location string
	Resource string
	Property string
}

func (k Key) String() string {
	s := k.Resource + "." + k.Property
	if k.Location != "" {
		s += "@" + k.Location
	}
	return s
}

// Snapshot is an immutable point-in-time view of a device's decoded status.
// A nil *Snapshot behaves as an empty one.
type Snapshot struct {
	deviceType DeviceType
	values     map[Key]Value
}

func newSnapshot(t DeviceType) *Snapshot {
	return &Snapshot{deviceType: t, values: map[Key]Value{}}
}

func (s *Snapshot) DeviceType() DeviceType {
	if s == nil {
		return ""
	}
	return s.deviceType
}

func (s *Snapshot) Get(resource, property string) (Value, bool) {
	return s.GetAt("", resource, property)
}

func (s *Snapshot) GetAt(location, resource, property string) (Value, bool) {
	if s == nil {
		return Value{}, false
	}
	v, ok := s.values[Key{Location: location, Resource: resource, Property: property}]
	return v, ok
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// Keys returns every key in a stable order.
func (s *Snapshot) Keys() []Key {
	if s == nil {
		return nil
	}
	keys := make([]Key, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Location != b.Location {
			return a.Location < b.Location
		}
		if a.Resource != b.Resource {
			return a.Resource < b.Resource
		}
		return a.Property < b.Property
	})
	return keys
}

// Merge returns a new snapshot holding the values of s overlaid with those
// of next. Neither input is modified.
func (s *Snapshot) Merge(next *Snapshot) *Snapshot {
	t := next.DeviceType()
	if t == "" {
		t = s.DeviceType()
	}
	out := newSnapshot(t)
	if s != nil {
		for k, v := range s.values {
			out.values[k] = v
		}
	}
	if next != nil {
		for k, v := range next.values {
			out.values[k] = v
		}
	}
	return out
}

// Map renders the snapshot as nested plain values: resource → property for
// Main values, and location → resource → property under "locations".
func (s *Snapshot) Map() map[string]any {
	out := map[string]any{}
	if s == nil {
		return out
	}
	for _, k := range s.Keys() {
		target := out
		if k.Location != "" {
			locs, _ := out["locations"].(map[string]any)
			if locs == nil {
				locs = map[string]any{}
				out["locations"] = locs
			}
			loc, _ := locs[k.Location].(map[string]any)
			if loc == nil {
				loc = map[string]any{}
				locs[k.Location] = loc
			}
			target = loc
		}
		res, _ := target[k.Resource].(map[string]any)
		if res == nil {
			res = map[string]any{}
			target[k.Resource] = res
		}
		res[k.Property] = s.values[k].Interface()
	}
	return out
}

func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Map())
}
