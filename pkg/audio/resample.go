package audio

// Resample converts mono float32 samples from fromRate to toRate using
// linear interpolation. Rates that differ by less than 1 Hz are treated as
// equal and the input is returned unchanged (zero allocation).
//
// For each output index i the fractional source position is i*(from/to); the
// two bracketing input samples are blended linearly. When the upper bracket
// falls past the end of the input the lower sample is used as-is; when both
// brackets are out of range the output sample is 0. The output length is
// floor(len(in) / ratio).
//
// Resample is deterministic and stateless. Non-positive rates return the
// input unchanged.
func Resample(in []float32, fromRate, toRate float64) []float32 {
	if fromRate <= 0 || toRate <= 0 {
		return in
	}
	diff := fromRate - toRate
	if diff < 1 && diff > -1 {
		return in
	}

	ratio := fromRate / toRate
	outLen := int(float64(len(in)) / ratio)
	if outLen == 0 {
		return nil
	}

	out := make([]float32, outLen)
	for i := range out {
		pos := float64(i) * ratio
		lo := int(pos)
		frac := float32(pos - float64(lo))

		switch {
		case lo+1 < len(in):
			out[i] = in[lo]*(1-frac) + in[lo+1]*frac
		case lo < len(in):
			out[i] = in[lo]
		default:
			out[i] = 0
		}
	}
	return out
}
