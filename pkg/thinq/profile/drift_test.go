package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDrift(t *testing.T) {
	assert := assert.New(t)

	p := mustLookup(t, DEVICE_TYPE_HOOD)
	server := `{
		"property":{
			"ventilation":{"fanSpeed":{"type":"range","mode":["r","w"]}},
			"lamp":{"lampBrightness":{"type":"range","mode":["r"]}},
			"operation":{"hoodOperationMode":{"type":"enum","mode":["r"]}},
			"timer":{
				"remainMinute":{"type":"range","mode":["r","w"]},
				"remainSecond":{"type":"range","mode":["r","w"]},
				"turboMinute":{"type":"range","mode":["r","w"]}
			}
		}
	}`
	report, err := DetectDrift(p, []byte(server))
	require.NoError(t, err)

	assert.Equal(DEVICE_TYPE_HOOD, report.DeviceType)
	assert.Equal(CATALOG_REVISION, report.CatalogRevision)
	assert.Equal([]string{"timer.turboMinute"}, report.MissingInCatalog)
	assert.Equal([]string{"lamp.lampBrightness"}, report.WritabilityMismatch)
	assert.Empty(report.MissingOnServer)
	assert.True(report.HasDrift())
}

func TestDetectDriftLocations(t *testing.T) {
	assert := assert.New(t)

	p := mustLookup(t, DEVICE_TYPE_COOKTOP)
	server := `{
		"property":[
			{"location":{"locationName":"CENTER"},
			 "cookingZone":{"currentState":{"mode":["r"]}},
			 "power":{"powerLevel":{"mode":["r","w"]}},
			 "remoteControlEnable":{"remoteControlEnabled":{"mode":["r"]}},
			 "timer":{"remainHour":{"mode":["r","w"]},"remainMinute":{"mode":["r","w"]}}}
		],
		"extensionProperty":{"operation":{"operationMode":{"mode":["w"]}}}
	}`
	report, err := DetectDrift(p, []byte(server))
	require.NoError(t, err)
	assert.False(report.HasDrift())
	assert.Empty(report.MissingOnServer)
}

func TestDetectDriftMissingOnServer(t *testing.T) {
	p := mustLookup(t, DEVICE_TYPE_WATER_PURIFIER)
	report, err := DetectDrift(p, []byte(`{"property":{"runState":{"cockState":{"mode":["r"]}}}}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"runState.sterilizingState", "waterInfo.waterType"}, report.MissingOnServer)
	assert.False(t, report.HasDrift())

	_, err = DetectDrift(p, []byte(`[`))
	assert.ErrorIs(t, err, ErrUnparsableValue)
}
