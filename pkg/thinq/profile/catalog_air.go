package profile

var (
	airConTargetC = span(16, 30, 0.5)
	airConTargetF = span(60, 86, 1)
)

func airConditioner() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_AIR_CONDITIONER,
		Revision: 3,
		Main: []*ResourceSpec{
			resource("airConJobMode",
				enum("currentJobMode", "COOL", "AIR_DRY", "AIR_CLEAN", "HEAT", "FAN", "AUTO", "ENERGY_SAVING").rw().required(),
			),
			resource("operation",
				enum("airConOperationMode", powerOnOff...).rw().required(),
				enum("airCleanOperationMode", startStop...).rw(),
			),
			siblingResource("temperature",
				siblingPair("currentTemperature", nil, nil),
				siblingPair("targetTemperature", airConTargetC, airConTargetF).rw(),
				siblingPair("heatTargetTemperature", airConTargetC, airConTargetF).rw(),
				siblingPair("coolTargetTemperature", airConTargetC, airConTargetF).rw(),
				unit(),
			),
			siblingResource("twoSetTemperature",
				siblingPair("currentTemperature", nil, nil),
				siblingPair("heatTargetTemperature", airConTargetC, airConTargetF).rw(),
				siblingPair("coolTargetTemperature", airConTargetC, airConTargetF).rw(),
				unit(),
			),
			resource("timer",
				ranged("relativeHourToStart", 0, 23, 1).rw(),
				ranged("relativeMinuteToStart", 0, 59, 1).rw(),
				ranged("relativeHourToStop", 0, 23, 1).rw(),
				ranged("relativeMinuteToStop", 0, 59, 1).rw(),
				ranged("absoluteHourToStart", 0, 23, 1).rw(),
				ranged("absoluteMinuteToStart", 0, 59, 1).rw(),
				ranged("absoluteHourToStop", 0, 23, 1).rw(),
				ranged("absoluteMinuteToStop", 0, 59, 1).rw(),
			),
			sleepTimer(),
			resource("powerSave", boolean("powerSaveEnabled").rw()),
			resource("airFlow",
				enum("windStrength", "SLOW", "LOW", "MID", "HIGH", "POWER", "AUTO").rw(),
				ranged("windStep", 1, 5, 1).rw(),
			),
			airQuality(),
			resource("filterInfo",
				integer("usedTime"),
				integer("filterLifetime"),
				ranged("filterRemainPercent", 0, 100, 1),
			),
		},
	}
}

func airPurifier() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_AIR_PURIFIER,
		Revision: 1,
		Main: []*ResourceSpec{
			resource("airPurifierJobMode",
				enum("currentJobMode", "CLEAN", "AUTO", "CIRCULATOR", "DUAL_CLEAN", "PET", "HUMIDITY", "SLEEP").rw().required(),
				enum("personalizationMode"),
			),
			resource("operation", enum("airPurifierOperationMode", powerOnOff...).rw().required()),
			clockTimer("Start", "absolute").withStop(),
			resource("airFlow", enum("windStrength", "AUTO", "LOW", "MID", "HIGH", "POWER").rw()),
			airQuality(),
			resource("filterInfo", ranged("filterRemainPercent", 0, 100, 1)),
		},
	}
}

func airPurifierFan() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_AIR_PURIFIER_FAN,
		Revision: 1,
		Main: []*ResourceSpec{
			resource("airFanJobMode",
				enum("currentJobMode", "SPACE_CLEAN", "DIRECT_CLEAN", "UP_FEATURE", "AUTO", "SLEEP").rw().required(),
			),
			resource("operation", enum("airFanOperationMode", powerOnOff...).rw().required()),
			clockTimer("Start", "absolute").withStop(),
			sleepTimer(),
			resource("airFlow",
				enum("warmMode", "WARM_ON", "WARM_OFF").rw(),
				ranged("windTemperature", 20, 40, 1).rw(),
				enum("windStrength", "WIND_1", "WIND_2", "WIND_3", "WIND_4", "WIND_5", "WIND_6", "WIND_7",
					"WIND_8", "WIND_9", "WIND_10", "AUTO", "POWER").rw(),
				enum("windAngle", "OFF", "ANGLE_45", "ANGLE_60", "ANGLE_90", "ANGLE_140").rw(),
			),
			airQuality(decimal("temperature")),
			resource("display", enum("light", displayLevels...).rw()),
			resource("misc", enum("uvNano", "ON", "OFF").rw()),
		},
	}
}

func ceilingFan() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_CEILING_FAN,
		Revision: 1,
		Main: []*ResourceSpec{
			resource("airFlow", enum("windStrength", "LOW", "MID", "HIGH", "TURBO").rw()),
			resource("operation", enum("ceilingfanOperationMode", powerOnOff...).rw().required()),
		},
	}
}

func dehumidifier() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_DEHUMIDIFIER,
		Revision: 1,
		Main: []*ResourceSpec{
			resource("operation", enum("dehumidifierOperationMode", powerOnOff...).rw().required()),
			resource("dehumidifierJobMode", enum("currentJobMode")),
			resource("humidity", ranged("currentHumidity", 0, 100, 1)),
			resource("airFlow", enum("windStrength", "LOW", "HIGH").rw()),
		},
	}
}

func humidifier() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_HUMIDIFIER,
		Revision: 1,
		Main: []*ResourceSpec{
			resource("humidifierJobMode",
				enum("currentJobMode", "HUMIDIFY", "AIR_CLEAN", "HUMIDIFY_AND_AIR_CLEAN").rw().required(),
			),
			resource("operation",
				enum("humidifierOperationMode", powerOnOff...).rw().required(),
				enum("autoMode", "AUTO_ON", "AUTO_OFF").rw(),
				enum("sleepMode", "SLEEP_ON", "SLEEP_OFF").rw(),
				enum("hygieneDryMode", "HYGIENE_DRY_ON", "HYGIENE_DRY_OFF").rw(),
			),
			clockTimer("Start", "absolute").withStop(),
			sleepTimer(),
			resource("humidity",
				ranged("targetHumidity", 30, 70, 5).rw(),
				enum("warmMode", "WARM_ON", "WARM_OFF").rw(),
			),
			resource("airFlow", enum("windStrength", "AUTO", "LOW", "MID", "HIGH").rw()),
			airQuality(decimal("temperature")),
			resource("display", enum("light", displayLevels...).rw()),
			resource("moodLamp", enum("moodLampState", "MOOD_LAMP_ON", "MOOD_LAMP_OFF").rw()),
		},
	}
}

func systemBoiler() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_SYSTEM_BOILER,
		Revision: 1,
		Main: []*ResourceSpec{
			resource("boilerJobMode",
				enum("currentJobMode", "AUTO", "HEAT", "COOL", "VACATION").rw().required(),
			),
			resource("operation",
				enum("boilerOperationMode", powerOnOff...).rw().required(),
				enum("hotWaterMode", "ON", "OFF").rw(),
			),
			siblingResource("temperature",
				siblingPair("currentTemperature", nil, nil),
				siblingPair("targetTemperature", nil, nil),
				siblingPair("heatTargetTemperature", span(15, 65, 1), span(59, 149, 1)).rw(),
				siblingPair("coolTargetTemperature", span(5, 30, 1), span(41, 86, 1)).rw(),
				siblingPair("heatMaxTemperature", nil, nil),
				siblingPair("heatMinTemperature", nil, nil),
				siblingPair("coolMaxTemperature", nil, nil),
				siblingPair("coolMinTemperature", nil, nil),
				unit(),
			),
		},
	}
}

func ventilator() *DeviceProfile {
	timer := clockTimer("Start", "absolute", "relative").withStop()
	return &DeviceProfile{
		Type:     DEVICE_TYPE_VENTILATOR,
		Revision: 1,
		Main: []*ResourceSpec{
			resource("ventJobMode",
				enum("currentJobMode", "VENT_NATURE", "VENT_AUTO", "VENT_HEAT_EXCHANGE").rw().required(),
			),
			resource("operation", enum("ventOperationMode", powerOnOff...).rw().required()),
			siblingResource("temperature", siblingPair("currentTemperature", nil, nil), unit()),
			resource("airQualitySensor",
				integer("PM1"),
				integer("PM2"),
				integer("PM10"),
				integer("CO2"),
			),
			resource("airFlow", enum("windStrength", "LOW", "MID", "HIGH", "POWER", "AUTO").rw()),
			timer,
			sleepTimer(),
		},
	}
}

func waterHeater() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_WATER_HEATER,
		Revision: 1,
		Main: []*ResourceSpec{
			resource("waterHeaterJobMode",
				enum("currentJobMode", "AUTO", "HEAT_PUMP", "TURBO", "VACATION").rw().required(),
			),
			resource("operation", enum("waterHeaterOperationMode")),
			siblingResource("temperature",
				siblingPair("currentTemperature", nil, nil),
				siblingPair("targetTemperature", span(30, 70, 1), span(86, 158, 1)).rw(),
				unit(),
			),
		},
	}
}
