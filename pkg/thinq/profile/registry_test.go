package profile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestCatalogInvariants(t *testing.T) {
	assert := assert.New(t)

	types := DeviceTypes()
	assert.GreaterOrEqual(len(types), 27)
	assert.Equal(CATALOG_REVISION, Catalog().Revision())

	for _, dt := range types {
		p, err := Lookup(dt)
		require.NoError(t, err, dt)
		assert.Equal(dt, p.Type)
		assert.NotEmpty(len(p.Main)+len(p.Sub), dt)
		assert.Positive(p.Revision, dt)
		if p.HasSub() {
			assert.NotEmpty(p.Locations, dt)
			assert.NotEqual(LocationNone, p.LocationShape, dt)
		}
		for _, set := range [][]*ResourceSpec{p.Main, p.Sub} {
			for _, res := range set {
				assert.NotEmpty(res.Properties, "%s %s", dt, res.ID)
				ids := map[string]bool{}
				for _, prop := range res.Properties {
					assert.False(ids[prop.ID], "%s %s.%s duplicated", dt, res.ID, prop.ID)
					ids[prop.ID] = true
					if prop.Writable && prop.Kind == KindEnum {
						assert.NotEmpty(prop.Values, "%s %s.%s", dt, res.ID, prop.ID)
					}
				}
			}
		}
	}
}

func TestLookupUnknown(t *testing.T) {
	assert := assert.New(t)

	_, err := Lookup(DeviceType("DEVICE_TOASTER"))
	assert.ErrorIs(err, ErrUnknownDeviceType)
	assert.True(IsUnknownDeviceType(err))
	assert.Contains(err.Error(), "DEVICE_TOASTER")
}

func TestParseDeviceType(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(DEVICE_TYPE_AIR_CONDITIONER, ParseDeviceType("AIR_CONDITIONER"))
	assert.Equal(DEVICE_TYPE_AIR_CONDITIONER, ParseDeviceType("device_air_conditioner"))
	assert.Equal("WASHTOWER", DEVICE_TYPE_WASHTOWER.Short())
}

func TestSnakeCase(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("wind_strength", snakeCase("windStrength"))
	assert.Equal("target_temperature_c", snakeCase("targetTemperatureC"))
	assert.Equal("pm10", snakeCase("PM10"))
	assert.Equal("m_c_reminder", snakeCase("mCReminder"))
	assert.Equal("air_con_operation_mode", snakeCase("airConOperationMode"))
}

func TestNewRegistryRejectsInvalidProfiles(t *testing.T) {
	assert := assert.New(t)

	empty := &DeviceProfile{Type: "DEVICE_EMPTY", Revision: 1}
	noProps := &DeviceProfile{Type: "DEVICE_NO_PROPS", Revision: 1, Main: []*ResourceSpec{{ID: "timer", WireKey: "timer"}}}
	openWritable := &DeviceProfile{Type: "DEVICE_OPEN", Revision: 1, Main: []*ResourceSpec{
		resource("operation", enum("mode").rw()),
	}}
	dupProps := &DeviceProfile{Type: "DEVICE_DUP", Revision: 1, Main: []*ResourceSpec{
		resource("timer", integer("remainHour"), integer("remainHour")),
	}}
	subNoLocations := &DeviceProfile{Type: "DEVICE_SUB", Revision: 1, Sub: []*ResourceSpec{
		resource("timer", integer("remainHour")),
	}}

	_, err := NewRegistry(1, empty, noProps, openWritable, dupProps, subNoLocations)
	assert.Error(err)
	msg := err.Error()
	assert.Contains(msg, "DEVICE_EMPTY")
	assert.Contains(msg, "DEVICE_NO_PROPS")
	assert.Contains(msg, "DEVICE_OPEN")
	assert.Contains(msg, "DEVICE_DUP")
	assert.Contains(msg, "DEVICE_SUB")

	_, err = NewRegistry(1, airConditioner(), airConditioner())
	assert.ErrorContains(err, "duplicate profile")
}

func TestNewRegistryRejectsSharedSiblingKeyWithoutUnits(t *testing.T) {
	p := &DeviceProfile{Type: "DEVICE_BAD_UNIT", Revision: 1, Main: []*ResourceSpec{
		siblingResource("temperature", decimal("targetTemperature"), decimal("targetTemperature").named("other")),
	}}
	_, err := NewRegistry(1, p)
	assert.ErrorContains(t, err, "shared without distinct units")
}

func TestNewRegistryRejectsMisplacedLocationLimits(t *testing.T) {
	assert := assert.New(t)

	mainLimited := &DeviceProfile{Type: "DEVICE_MAIN_LIMITED", Revision: 1, Main: []*ResourceSpec{
		resource("timer", integer("remainHour").at("washer")),
	}}
	unknownLimit := &DeviceProfile{Type: "DEVICE_UNKNOWN_LIMIT", Revision: 1,
		Sub:           []*ResourceSpec{resource("timer", integer("remainHour").at("attic"))},
		Locations:     []string{"washer"},
		LocationShape: LocationKeyed,
	}
	_, err := NewRegistry(1, mainLimited, unknownLimit)
	assert.ErrorContains(err, "main property timer.remain_hour limited to locations")
	assert.ErrorContains(err, "limited to unknown location attic")
}

func TestProfileLocation(t *testing.T) {
	assert := assert.New(t)

	p := mustLookup(t, DEVICE_TYPE_WASHTOWER)
	loc, ok := p.Location("WASHER")
	assert.True(ok)
	assert.Equal("washer", loc)
	assert.True(p.HasLocation("Dryer"))
	assert.False(p.HasLocation("MINI"))
}

func TestResourceLookup(t *testing.T) {
	assert := assert.New(t)

	p, err := Lookup(DEVICE_TYPE_REFRIGERATOR)
	require.NoError(t, err)

	res, sub, ok := p.Resource("temperature_in_units")
	assert.True(ok)
	assert.True(sub)
	_, ok = res.Property("target_temperature_c")
	assert.True(ok)

	_, sub, ok = p.Resource("power_save")
	assert.True(ok)
	assert.False(sub)

	_, _, ok = p.Resource("nope")
	assert.False(ok)
}

func TestExportManifest(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	require.NoError(t, ExportManifest(&buf))

	var m Manifest
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &m))
	assert.Equal(CATALOG_REVISION, m.Revision)
	assert.Len(m.Devices, len(DeviceTypes()))

	var ac *ProfileManifest
	for i := range m.Devices {
		if m.Devices[i].Type == DEVICE_TYPE_AIR_CONDITIONER {
			ac = &m.Devices[i]
		}
	}
	require.NotNil(t, ac)
	found := false
	for _, res := range ac.Main {
		if res.ID != "temperature" {
			continue
		}
		assert.Equal("sibling", res.UnitStyle)
		for _, prop := range res.Properties {
			if prop.ID == "target_temperature_c" {
				found = true
				assert.Equal("rw", prop.Access)
				assert.Equal("C", prop.Unit)
				assert.Equal(16.0, prop.Range.Min)
			}
		}
	}
	assert.True(found)
}
