package device

// genericDriver is the fallback for devices whose transport could not be
// classified. It carries no capability data and accepts no power
// commands; the engine never finds an eligible tier for it.
type genericDriver struct {
	name string
	path string
}

func (d *genericDriver) Discover() (*DeviceProfile, error) {
	return newProfile(d.name, d.path, TransportGeneric), nil
}

func (d *genericDriver) ReadPowerState() (PowerState, error) {
	return Active, nil
}

func (d *genericDriver) RequestPowerState(target PowerState, force bool) (PowerState, error) {
	_, err := MapIntent(TransportGeneric, target, force)
	return Active, err
}
