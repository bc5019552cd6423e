package sensor

// FakeAmbient is a test double returning fixed values.
type FakeAmbient struct {
	Temperature float64
	Humidity    float64

	// Err, if set, is returned by ReadAmbient
	Err error

	// Reads counts calls to ReadAmbient
	Reads int
}

func (f *FakeAmbient) ReadAmbient() (float64, float64, error) {
	f.Reads++
	if f.Err != nil {
		return 0, 0, f.Err
	}
	return f.Temperature, f.Humidity, nil
}

// FakeCore returns scripted samples, repeating the last one when exhausted.
type FakeCore struct {
	Samples []float64
	Err     error
	Reads   int

	index int
}

func (f *FakeCore) ReadCore() (float64, error) {
	f.Reads++
	if f.Err != nil {
		return 0, f.Err
	}
	if len(f.Samples) == 0 {
		return 0, ErrNotANumber
	}
	v := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return v, nil
}
