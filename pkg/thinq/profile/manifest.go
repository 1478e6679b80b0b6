package profile

import (
	"io"

	"gopkg.in/yaml.v3"
)

type Manifest struct {
	Revision int               `yaml:"revision" json:"revision"`
	Devices  []ProfileManifest `yaml:"devices" json:"devices"`
}

type ProfileManifest struct {
	Type          DeviceType         `yaml:"type" json:"type"`
	Revision      int                `yaml:"revision" json:"revision"`
	LocationShape string             `yaml:"location_shape,omitempty" json:"location_shape,omitempty"`
	Locations     []string           `yaml:"locations,omitempty" json:"locations,omitempty"`
	Main          []ResourceManifest `yaml:"main,omitempty" json:"main,omitempty"`
	Sub           []ResourceManifest `yaml:"sub,omitempty" json:"sub,omitempty"`
}

type ResourceManifest struct {
	ID         string             `yaml:"id" json:"id"`
	Wire       string             `yaml:"wire" json:"wire"`
	UnitStyle  string             `yaml:"unit_style,omitempty" json:"unit_style,omitempty"`
	Properties []PropertyManifest `yaml:"properties" json:"properties"`
}

type PropertyManifest struct {
	ID       string             `yaml:"id" json:"id"`
	Wire     string             `yaml:"wire" json:"wire"`
	Kind     string             `yaml:"kind" json:"kind"`
	Access   string             `yaml:"access" json:"access"`
	Required bool               `yaml:"required,omitempty" json:"required,omitempty"`
	Unit     string             `yaml:"unit,omitempty" json:"unit,omitempty"`
	Range    *Range             `yaml:"range,omitempty" json:"range,omitempty"`
	Values   []string           `yaml:"values,omitempty" json:"values,omitempty"`
	Fields   []PropertyManifest `yaml:"fields,omitempty" json:"fields,omitempty"`
	// Locations is set on Sub properties limited to some locations.
	Locations []string `yaml:"locations,omitempty" json:"locations,omitempty"`
}

// Manifest describes every profile of the registry in a serializable form.
func (r *Registry) Manifest() Manifest {
	m := Manifest{Revision: r.revision}
	for _, t := range r.types {
		m.Devices = append(m.Devices, DescribeProfile(r.profiles[t]))
	}
	return m
}

func DescribeProfile(p *DeviceProfile) ProfileManifest {
	pm := ProfileManifest{
		Type:      p.Type,
		Revision:  p.Revision,
		Locations: p.Locations,
		Main:      describeResources(p.Main),
		Sub:       describeResources(p.Sub),
	}
	if p.LocationShape != LocationNone {
		pm.LocationShape = p.LocationShape.String()
	}
	return pm
}

func describeResources(set []*ResourceSpec) []ResourceManifest {
	var out []ResourceManifest
	for _, r := range set {
		rm := ResourceManifest{ID: r.ID, Wire: r.WireKey}
		if r.UnitStyle == UnitSibling {
			rm.UnitStyle = "sibling"
		}
		for _, p := range r.Properties {
			rm.Properties = append(rm.Properties, describeProperty(p))
		}
		out = append(out, rm)
	}
	return out
}

func describeProperty(p *PropertySpec) PropertyManifest {
	pm := PropertyManifest{
		ID:        p.ID,
		Wire:      p.WireKey,
		Kind:      p.Kind.String(),
		Access:    "r",
		Required:  p.Required,
		Unit:      string(p.Unit),
		Range:     p.Range,
		Values:    p.Values,
		Locations: p.Locations,
	}
	if p.Writable {
		pm.Access = "rw"
	}
	for _, f := range p.Fields {
		pm.Fields = append(pm.Fields, describeProperty(f))
	}
	return pm
}

// ExportManifest writes the registry as YAML.
func (r *Registry) ExportManifest(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r.Manifest()); err != nil {
		return err
	}
	return enc.Close()
}

func ExportManifest(w io.Writer) error {
	return defaultRegistry.ExportManifest(w)
}
