package profile

func laundryTimer() *ResourceSpec {
	return resource("timer",
		integer("remainHour"),
		integer("remainMinute"),
		integer("totalHour"),
		integer("totalMinute"),
		ranged("relativeHourToStop", 0, 19, 1).rw(),
		ranged("relativeMinuteToStop", 0, 59, 1),
		ranged("relativeHourToStart", 0, 19, 1).rw(),
		ranged("relativeMinuteToStart", 0, 59, 1),
	)
}

func washerResources() []*ResourceSpec {
	return []*ResourceSpec{
		runState(),
		resource("operation", enum("washerOperationMode", laundryOps...).rw()),
		remoteControl(),
		laundryTimer(),
		detergent(),
		cycle(),
	}
}

func detergent() *ResourceSpec {
	return resource("detergent", enum("detergentSetting", "NORMAL", "LESS", "MORE", "OFF"))
}

func cycle() *ResourceSpec {
	return resource("cycle", integer("cycleCount"))
}

func dryerResources() []*ResourceSpec {
	return []*ResourceSpec{
		runState(),
		resource("operation", enum("dryerOperationMode", laundryOps...).rw()),
		remoteControl(),
		laundryTimer(),
	}
}

func dryer() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_DRYER,
		Revision: 1,
		Main:     dryerResources(),
	}
}

func washer() *DeviceProfile {
	return &DeviceProfile{
		Type:          DEVICE_TYPE_WASHER,
		Revision:      2,
		Sub:           washerResources(),
		Locations:     []string{"MAIN", "MINI"},
		LocationShape: LocationEnvelope,
	}
}

func washcomboMain() *DeviceProfile {
	return &DeviceProfile{
		Type:          DEVICE_TYPE_WASHCOMBO_MAIN,
		Revision:      1,
		Sub:           washerResources(),
		Locations:     []string{"MAIN"},
		LocationShape: LocationEnvelope,
	}
}

func washcomboMini() *DeviceProfile {
	return &DeviceProfile{
		Type:          DEVICE_TYPE_WASHCOMBO_MINI,
		Revision:      1,
		Sub:           washerResources(),
		Locations:     []string{"MINI"},
		LocationShape: LocationEnvelope,
	}
}

// washtower nests each unit under its own key. The units share resource
// shapes; what only one unit has is limited to its location.
func washtower() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_WASHTOWER,
		Revision: 2,
		Sub: []*ResourceSpec{
			runState(),
			resource("operation",
				enum("washerOperationMode", laundryOps...).rw().at("washer"),
				enum("dryerOperationMode", laundryOps...).rw().at("dryer"),
			),
			remoteControl(),
			laundryTimer(),
			detergent().at("washer"),
			cycle().at("washer"),
		},
		Locations:     []string{"washer", "dryer"},
		LocationShape: LocationKeyed,
	}
}

func washtowerDryer() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_WASHTOWER_DRYER,
		Revision: 1,
		Main:     dryerResources(),
	}
}

func washtowerWasher() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_WASHTOWER_WASHER,
		Revision: 1,
		Main:     washerResources(),
	}
}

func robotCleaner() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_ROBOT_CLEANER,
		Revision: 1,
		Main: []*ResourceSpec{
			runState(),
			resource("robotCleanerJobMode", enum("currentJobMode")),
			resource("operation", enum("cleanOperationMode", "START", "HOMING", "PAUSE", "RESUME").rw()),
			battery(),
			resource("timer",
				ranged("absoluteHourToStart", 0, 23, 1).rw(),
				ranged("absoluteMinuteToStart", 0, 59, 1).rw(),
				integer("runningHour"),
				integer("runningMinute"),
			),
		},
	}
}

func stickCleaner() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_STICK_CLEANER,
		Revision: 1,
		Main: []*ResourceSpec{
			runState(),
			resource("stickCleanerJobMode", enum("currentJobMode")),
			battery(),
		},
	}
}

func styler() *DeviceProfile {
	return &DeviceProfile{
		Type:     DEVICE_TYPE_STYLER,
		Revision: 1,
		Main: []*ResourceSpec{
			runState(),
			resource("operation", enum("stylerOperationMode", "START", "STOP", "POWER_OFF", "WAKE_UP").rw()),
			remoteControl(),
			resource("timer",
				ranged("relativeHourToStop", 0, 24, 1).rw(),
				ranged("relativeMinuteToStop", 0, 59, 1),
				integer("remainHour"),
				integer("remainMinute"),
				integer("totalHour"),
				integer("totalMinute"),
			),
		},
	}
}
