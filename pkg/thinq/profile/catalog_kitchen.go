package profile

func cooktop() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_COOKTOP,
		Revision: 2,
		// operationMode is only reported alongside extensionProperty, so it
		// must never be required.
		Main: []*ResourceSpec{
			resource("operation", enum("operationMode", "POWER_OFF").rw()),
		},
		Sub: []*ResourceSpec{
			resource("cookingZone", enum("currentState")),
			resource("power", ranged("powerLevel", 0, 10, 1).rw()),
			remoteControl(),
			resource("timer",
				ranged("remainHour", 0, 9, 1).rw(),
				ranged("remainMinute", 0, 59, 1).rw(),
			),
		},
		Locations: []string{
			"CENTER", "CENTER_FRONT", "CENTER_REAR",
			"LEFT_FRONT", "LEFT_REAR", "RIGHT_FRONT", "RIGHT_REAR",
			"BURNER_1", "BURNER_2", "BURNER_3", "BURNER_4",
			"BURNER_5", "BURNER_6", "BURNER_7", "BURNER_8",
			"INDUCTION_1", "INDUCTION_2", "SOUSVIDE_1",
		},
		LocationShape: LocationEnvelope,
	}
}

func dishWasher() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_DISH_WASHER,
		Revision: 1,
		Main: []*ResourceSpec{
			runState(),
			resource("dishWashingStatus", boolean("rinseRefill")),
			resource("preference",
				integer("rinseLevel"),
				integer("softeningLevel"),
				integer("mCReminder"),
				integer("signalLevel"),
				integer("cleanLReminder"),
			),
			resource("doorStatus", enum("doorState", "OPEN", "CLOSE")),
			resource("operation", enum("dishWasherOperationMode", "START", "STOP", "POWER_OFF").rw()),
			remoteControl(),
			resource("timer",
				ranged("relativeHourToStart", 0, 24, 1).rw(),
				ranged("relativeMinuteToStart", 0, 59, 1),
				integer("remainHour"),
				integer("remainMinute"),
				integer("totalHour"),
				integer("totalMinute"),
			),
			resource("dishWashingCourse", enum("currentDishWashingCourse")),
		},
	}
}

func homeBrew() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_HOME_BREW,
		Revision: 1,
		Main: []*ResourceSpec{
			runState(),
			resource("recipe",
				enum("beerRemain"),
				enum("flavorInfo"),
				enum("hopOilInfo"),
				enum("wortInfo"),
				enum("yeastInfo"),
				enum("recipeName"),
				composite("flavorCapsule",
					enum("capsuleName"),
					ranged("capsuleRemain", 0, 100, 1),
				),
			),
			resource("timer",
				integer("elapsedDayState"),
				integer("elapsedDayTotal"),
			),
		},
	}
}

func hood() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_HOOD,
		Revision: 1,
		Main: []*ResourceSpec{
			resource("ventilation", ranged("fanSpeed", 0, 5, 1).rw()),
			resource("lamp", ranged("lampBrightness", 0, 2, 1).rw()),
			resource("operation", enum("hoodOperationMode", "POWER_ON", "POWER_OFF")),
			resource("timer",
				ranged("remainMinute", 0, 59, 1).rw(),
				ranged("remainSecond", 0, 59, 1).rw(),
			),
		},
	}
}

func kimchiRefrigerator() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_KIMCHI_REFRIGERATOR,
		Revision: 1,
		Main: []*ResourceSpec{
			resource("refrigeration",
				enum("oneTouchFilter", "ON", "OFF").rw(),
				enum("freshAirFilter", "ON", "OFF", "AUTO", "POWER", "REPLACE"),
			),
		},
		Sub: []*ResourceSpec{
			resource("temperature", enum("targetTemperature")),
		},
		Locations:     []string{"TOP", "MIDDLE", "BOTTOM", "LEFT", "RIGHT", "SINGLE"},
		LocationShape: LocationInResource,
	}
}

func microwaveOven() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_MICROWAVE_OVEN,
		Revision: 1,
		Main: []*ResourceSpec{
			runState(),
			resource("timer",
				integer("remainMinute"),
				integer("remainSecond"),
			),
			resource("ventilation", ranged("fanSpeed", 0, 4, 1).rw()),
			resource("lamp", ranged("lampBrightness", 0, 2, 1).rw()),
		},
	}
}

func oven() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_OVEN,
		Revision: 2,
		Main: []*ResourceSpec{
			resource("info", enum("type", "RANGE", "SINGLE", "DOUBLE")),
		},
		Sub: []*ResourceSpec{
			runState(),
			resource("operation", enum("ovenOperationMode", "START", "STOP", "PREHEATING", "COOKING", "PAUSE").rw()),
			resource("cook", enum("cookMode", "BAKE", "CONVECTION_BAKE", "CONVECTION_ROAST", "ROAST", "CRISP_CONVECTION", "BROIL", "WARM", "AIR_FRY").rw()),
			remoteControl(),
			siblingResource("temperature",
				siblingPair("targetTemperature", span(80, 290, 5), span(170, 550, 5)).rw(),
				unit(),
			),
			resource("timer",
				integer("remainHour"),
				integer("remainMinute"),
				integer("remainSecond"),
				ranged("targetHour", 0, 23, 1).rw(),
				ranged("targetMinute", 0, 59, 1).rw(),
				ranged("targetSecond", 0, 59, 1),
				ranged("timerHour", 0, 23, 1),
				ranged("timerMinute", 0, 59, 1),
				ranged("timerSecond", 0, 59, 1),
			),
		},
		Locations:     []string{"OVEN", "UPPER", "LOWER"},
		LocationShape: LocationEnvelope,
	}
}

func plantCultivator() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_PLANT_CULTIVATOR,
		Revision: 1,
		Sub: []*ResourceSpec{
			resource("runState",
				enum("currentState").required(),
				enum("growthMode", "STANDARD", "EXT_LEAF", "EXT_HERB", "EXT_FLOWER", "EXT_EXPERT"),
				enum("windVolume", "LEVEL_1", "LEVEL_2", "LEVEL_3", "LEVEL_4"),
			),
			resource("light",
				ranged("brightness", 0, 100, 1),
				ranged("duration", 0, 24, 1),
				ranged("startHour", 0, 23, 1),
				ranged("startMinute", 0, 59, 1),
			),
			siblingResource("temperature",
				siblingPair("dayTargetTemperature", nil, nil),
				siblingPair("nightTargetTemperature", nil, nil),
				enum("temperatureState", "HIGH", "NORMAL", "LOW"),
				unit(),
			),
		},
		Locations:     []string{"UPPER", "LOWER"},
		LocationShape: LocationEnvelope,
	}
}

func refrigerator() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_REFRIGERATOR,
		Revision: 2,
		Main: []*ResourceSpec{
			resource("powerSave", boolean("powerSaveEnabled").rw()),
			resource("ecoFriendly", enum("ecoFriendlyMode", "ON", "OFF").rw()),
			resource("sabbath", enum("sabbathMode", "ON", "OFF")),
			resource("refrigeration",
				boolean("rapidFreeze").rw(),
				boolean("expressMode").rw(),
				enum("expressModeName"),
				boolean("expressFridge").rw(),
				enum("freshAirFilter", "OFF", "AUTO", "POWER", "REPLACE", "SMART_STORAGE_POWER", "SMART_STORAGE_OFF", "SMART_ON").rw(),
			),
			resource("waterFilterInfo",
				integer("usedTime"),
				enum("unit", "MONTHS", "PERCENT").named("water_filter_info_unit"),
			),
		},
		Sub: []*ResourceSpec{
			resource("doorStatus", enum("doorState", "OPEN", "CLOSE")),
			resource("temperatureInUnits",
				suffixedPair("targetTemperature", span(-8, 7, 1), span(17, 46, 1)).rw(),
				unit(),
			),
		},
		Locations:     []string{"MAIN", "FRIDGE", "FREEZER", "CONVERTIBLE"},
		LocationShape: LocationInResource,
	}
}

func waterPurifier() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_WATER_PURIFIER,
		Revision: 1,
		Main: []*ResourceSpec{
			resource("runState",
				enum("cockState", "CLEANING", "NORMAL"),
				enum("sterilizingState", "STERILIZING", "NORMAL"),
			),
			resource("waterInfo", enum("waterType", "NORMAL", "HOT", "COLD", "PURIFIED")),
		},
	}
}

func wineCellar() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_WINE_CELLAR,
		Revision: 1,
		Main: []*ResourceSpec{
			resource("operation",
				enum("lightBrightness", "0%", "10%", "20%", "30%", "40%", "50%", "60%", "70%", "80%", "90%", "100%").rw(),
				enum("optimalHumidity", "ON", "OFF").rw(),
				enum("sabbathMode", "ON", "OFF"),
				ranged("lightStatus", 0, 100, 1).rw(),
			),
		},
		Sub: []*ResourceSpec{
			resource("temperatureInUnits",
				suffixedPair("targetTemperature", span(3, 18, 1), span(37, 64, 1)).rw(),
				unit(),
			),
		},
		Locations:     []string{"WINE_UPPER", "WINE_MIDDLE", "WINE_LOWER"},
		LocationShape: LocationInResource,
	}
}
