package core

// portMask groups the pins of one port so a pin list can be driven with one
// register access per port.
type portMask struct {
	port PortID
	mask uint32
}

// groupPins merges pins by port, keeping ports in first-seen order.
func groupPins(pins []Pin) []portMask {
	var groups []portMask
	for _, p := range pins {
		found := false
		for i := range groups {
			if groups[i].port == p.Port {
				groups[i].mask |= p.Mask()
				found = true
				break
			}
		}
		if !found {
			groups = append(groups, portMask{port: p.Port, mask: p.Mask()})
		}
	}
	return groups
}

// configurePins sets direction, pull-up and digital enable for a pin group.
func configurePins(d PortDriver, pins []Pin, asOutput, pullUp bool) {
	for _, g := range groupPins(pins) {
		d.SetDirection(g.port, g.mask, asOutput)
		if pullUp {
			d.SetPullUp(g.port, g.mask)
		}
		d.EnableDigital(g.port, g.mask)
	}
}

// writeGroup drives every pin in the group high or low.
func writeGroup(d PortDriver, groups []portMask, high bool) {
	for _, g := range groups {
		var v uint32
		if high {
			v = g.mask
		}
		d.WritePins(g.port, g.mask, v)
	}
}

func setPin(d PortDriver, p Pin, high bool) {
	var v uint32
	if high {
		v = p.Mask()
	}
	d.WritePins(p.Port, p.Mask(), v)
}

func pinHigh(d PortDriver, p Pin) bool {
	return d.ReadPins(p.Port, p.Mask()) != 0
}
