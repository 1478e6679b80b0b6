package profile

import (
	"encoding/json"
	"slices"
	"sort"
)

// DriftReport compares a catalog profile with the capability document the
// server returns for one device. Entries are "resourceWire.propertyWire".
type DriftReport struct {
	DeviceType          DeviceType `json:"device_type" yaml:"device_type"`
	CatalogRevision     int        `json:"catalog_revision" yaml:"catalog_revision"`
	ProfileRevision     int        `json:"profile_revision" yaml:"profile_revision"`
	MissingInCatalog    []string   `json:"missing_in_catalog,omitempty" yaml:"missing_in_catalog,omitempty"`
	MissingOnServer     []string   `json:"missing_on_server,omitempty" yaml:"missing_on_server,omitempty"`
	WritabilityMismatch []string   `json:"writability_mismatch,omitempty" yaml:"writability_mismatch,omitempty"`
}

func (r *DriftReport) HasDrift() bool {
	return len(r.MissingInCatalog) > 0 || len(r.WritabilityMismatch) > 0
}

type serverProperty struct {
	readable bool
	writable bool
}

// DetectDrift reads the server profile document ({"property": ...} with an
// optional "extensionProperty") and reports how it differs from p. Sub
// locations are flattened: a property counts as present if any location
// declares it.
func DetectDrift(p *DeviceProfile, serverProfile []byte) (*DriftReport, error) {
	if p == nil {
		return nil, &FieldError{Err: ErrUnknownDeviceType}
	}
	var doc map[string]any
	if err := json.Unmarshal(serverProfile, &doc); err != nil {
		return nil, &FieldError{Err: ErrUnparsableValue, Detail: err.Error()}
	}
	server := map[string]serverProperty{}
	collectServerProperties(doc["property"], server)
	collectServerProperties(doc["extensionProperty"], server)

	catalog := map[string]*PropertySpec{}
	p.Properties(func(res *ResourceSpec, prop *PropertySpec, _ bool) {
		key := res.WireKey + "." + prop.WireKey
		if existing, ok := catalog[key]; ok && existing.Writable {
			return
		}
		catalog[key] = prop
	})

	report := &DriftReport{
		DeviceType:      p.Type,
		CatalogRevision: CATALOG_REVISION,
		ProfileRevision: p.Revision,
	}
	for key, sp := range server {
		prop, ok := catalog[key]
		if !ok {
			report.MissingInCatalog = append(report.MissingInCatalog, key)
			continue
		}
		if prop.Writable != sp.writable {
			report.WritabilityMismatch = append(report.WritabilityMismatch, key)
		}
	}
	for key := range catalog {
		if _, ok := server[key]; !ok {
			report.MissingOnServer = append(report.MissingOnServer, key)
		}
	}
	sort.Strings(report.MissingInCatalog)
	sort.Strings(report.MissingOnServer)
	sort.Strings(report.WritabilityMismatch)
	return report, nil
}

func collectServerProperties(node any, out map[string]serverProperty) {
	switch v := node.(type) {
	case []any:
		for _, item := range v {
			collectServerProperties(item, out)
		}
	case map[string]any:
		for resource, body := range v {
			if resource == "location" {
				continue
			}
			collectResource(resource, body, out)
		}
	}
}

func collectResource(resource string, body any, out map[string]serverProperty) {
	switch v := body.(type) {
	case []any:
		for _, item := range v {
			collectResource(resource, item, out)
		}
	case map[string]any:
		for name, def := range v {
			if name == LOCATION_NAME_KEY {
				continue
			}
			sp := serverProperty{readable: true}
			if m, ok := def.(map[string]any); ok {
				if modes, ok := m["mode"].([]any); ok {
					sp.readable = slices.Contains(modes, any("r"))
					sp.writable = slices.Contains(modes, any("w"))
				}
			}
			key := resource + "." + name
			prev := out[key]
			out[key] = serverProperty{readable: prev.readable || sp.readable, writable: prev.writable || sp.writable}
		}
	}
}
