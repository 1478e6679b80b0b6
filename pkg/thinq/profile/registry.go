package profile

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/multierr"
)

// CATALOG_REVISION changes whenever a property is removed or renamed in any
// profile. Additions only bump the affected profile revision.
const CATALOG_REVISION = 3

type Registry struct {
	revision int
	profiles map[DeviceType]*DeviceProfile
	types    []DeviceType
}

// NewRegistry validates and indexes the given profiles.
func NewRegistry(revision int, profiles ...*DeviceProfile) (*Registry, error) {
	reg := &Registry{
		revision: revision,
		profiles: make(map[DeviceType]*DeviceProfile, len(profiles)),
	}
	var errs error
	for _, p := range profiles {
		if _, dup := reg.profiles[p.Type]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%s: duplicate profile", p.Type))
			continue
		}
		if err := validateProfile(p); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		p.index()
		reg.profiles[p.Type] = p
		reg.types = append(reg.types, p.Type)
	}
	if errs != nil {
		return nil, errs
	}
	sort.Slice(reg.types, func(i, j int) bool { return reg.types[i] < reg.types[j] })
	return reg, nil
}

func (r *Registry) Revision() int {
	return r.revision
}

func (r *Registry) Lookup(t DeviceType) (*DeviceProfile, error) {
	p, ok := r.profiles[t]
	if !ok {
		return nil, &FieldError{Err: ErrUnknownDeviceType, Detail: string(t)}
	}
	return p, nil
}

func (r *Registry) DeviceTypes() []DeviceType {
	return append([]DeviceType(nil), r.types...)
}

var defaultRegistry = mustBuildCatalog()

func mustBuildCatalog() *Registry {
	reg, err := NewRegistry(CATALOG_REVISION, catalog()...)
	if err != nil {
		panic(fmt.Sprintf("profile catalog is invalid: %v", err))
	}
	return reg
}

// Catalog returns the process-wide registry built from the compiled-in
// catalog.
func Catalog() *Registry {
	return defaultRegistry
}

func Lookup(t DeviceType) (*DeviceProfile, error) {
	return defaultRegistry.Lookup(t)
}

func DeviceTypes() []DeviceType {
	return defaultRegistry.DeviceTypes()
}

func validateProfile(p *DeviceProfile) error {
	var errs error
	if len(p.Main) == 0 && len(p.Sub) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s: profile has no resources", p.Type))
	}
	if len(p.Sub) > 0 && (len(p.Locations) == 0 || p.LocationShape == LocationNone) {
		errs = multierr.Append(errs, fmt.Errorf("%s: sub resources need locations and a location shape", p.Type))
	}
	if len(p.Sub) == 0 && len(p.Locations) > 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s: locations declared without sub resources", p.Type))
	}
	for _, r := range p.Main {
		for _, prop := range r.Properties {
			if len(prop.Locations) > 0 {
				errs = multierr.Append(errs, fmt.Errorf("%s: main property %s.%s limited to locations", p.Type, r.ID, prop.ID))
			}
		}
	}
	for _, r := range p.Sub {
		for _, prop := range r.Properties {
			for _, l := range prop.Locations {
				if !p.HasLocation(l) {
					errs = multierr.Append(errs, fmt.Errorf("%s: %s.%s limited to unknown location %s", p.Type, r.ID, prop.ID, l))
				}
			}
		}
	}
	seen := map[string]bool{}
	for _, set := range [][]*ResourceSpec{p.Main, p.Sub} {
		for _, r := range set {
			if seen[r.ID] {
				errs = multierr.Append(errs, fmt.Errorf("%s: resource %s declared twice", p.Type, r.ID))
			}
			seen[r.ID] = true
			errs = multierr.Append(errs, validateResource(p.Type, r))
		}
	}
	return errs
}

func validateResource(t DeviceType, r *ResourceSpec) error {
	if len(r.Properties) == 0 {
		return fmt.Errorf("%s: resource %s has no properties", t, r.ID)
	}
	var errs error
	ids := map[string]bool{}
	for _, p := range r.Properties {
		if ids[p.ID] {
			errs = multierr.Append(errs, fmt.Errorf("%s: %s.%s declared twice", t, r.ID, p.ID))
		}
		ids[p.ID] = true
		if p.Writable && p.Kind == KindEnum && len(p.Values) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("%s: %s.%s is writable with an open value set", t, r.ID, p.ID))
		}
		if p.Kind == KindComposite && len(p.Fields) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("%s: %s.%s composite without fields", t, r.ID, p.ID))
		}
		if p.Unit != UNIT_NONE && p.Pair == "" {
			errs = multierr.Append(errs, fmt.Errorf("%s: %s.%s has a unit but no pair", t, r.ID, p.ID))
		}
	}
	if r.UnitStyle == UnitSibling {
		wire := map[string][]*PropertySpec{}
		for _, p := range r.Properties {
			wire[p.WireKey] = append(wire[p.WireKey], p)
		}
		for key, specs := range wire {
			if len(specs) > 1 && !distinctUnits(specs) {
				errs = multierr.Append(errs, fmt.Errorf("%s: %s wire key %s shared without distinct units", t, r.ID, key))
			}
		}
	}
	return errs
}

func distinctUnits(specs []*PropertySpec) bool {
	units := map[Unit]bool{}
	for _, s := range specs {
		if s.Unit == UNIT_NONE || units[s.Unit] {
			return false
		}
		units[s.Unit] = true
	}
	return true
}

// IsUnknownDeviceType reports whether err came from a failed profile lookup.
func IsUnknownDeviceType(err error) bool {
	return errors.Is(err, ErrUnknownDeviceType)
}
