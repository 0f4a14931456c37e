package predictor

import "math"

const (
	varianceEpsilon = 1e-12
	singularEpsilon = 1e-10
)

// fit is an ordinary least squares solution with intercept.
type fit struct {
	Intercept    float64
	Coefficients [2]float64
}

func (f fit) predict(x Features) float64 {
	return f.Intercept + f.Coefficients[0]*x.RecordsProcessed + f.Coefficients[1]*x.IndexesUsed
}

// fitOLS solves the 2-feature normal equations on centered sums. It needs at
// least one sample. When the design is rank deficient it returns the
// minimum-norm solution: a constant feature gets a zero coefficient, and two
// collinear features share the slope in proportion to their scale.
func fitOLS(samples []Sample) fit {
	n := float64(len(samples))
	var m1, m2, my float64
	for _, s := range samples {
		m1 += s.RecordsProcessed
		m2 += s.IndexesUsed
		my += s.ExecutionTime
	}
	m1 /= n
	m2 /= n
	my /= n

	var s11, s22, s12, s1y, s2y float64
	for _, s := range samples {
		d1 := s.RecordsProcessed - m1
		d2 := s.IndexesUsed - m2
		dy := s.ExecutionTime - my
		s11 += d1 * d1
		s22 += d2 * d2
		s12 += d1 * d2
		s1y += d1 * dy
		s2y += d2 * dy
	}

	var b1, b2 float64
	vary1 := s11 > varianceEpsilon
	vary2 := s22 > varianceEpsilon
	switch {
	case vary1 && vary2:
		det := s11*s22 - s12*s12
		if math.Abs(det) > singularEpsilon*s11*s22 {
			b1 = (s22*s1y - s12*s2y) / det
			b2 = (s11*s2y - s12*s1y) / det
			break
		}
		// x2 = a*x1 (centered): any (b1, b2) with b1 + a*b2 = beta fits;
		// take the one with the smallest norm.
		a := s12 / s11
		beta := s1y / s11
		b1 = beta / (1 + a*a)
		b2 = a * b1
	case vary1:
		b1 = s1y / s11
	case vary2:
		b2 = s2y / s22
	}

	return fit{
		Intercept:    my - b1*m1 - b2*m2,
		Coefficients: [2]float64{b1, b2},
	}
}

// meanSquaredError and rSquared evaluate f on held-out samples. rSquared
// reports false when the targets have no variance.
func meanSquaredError(f fit, samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		d := f.predict(s.Features) - s.ExecutionTime
		sum += d * d
	}
	return sum / float64(len(samples))
}

func rSquared(f fit, samples []Sample) (float64, bool) {
	if len(samples) == 0 {
		return 0, false
	}
	var mean float64
	for _, s := range samples {
		mean += s.ExecutionTime
	}
	mean /= float64(len(samples))

	var ssRes, ssTot float64
	for _, s := range samples {
		r := s.ExecutionTime - f.predict(s.Features)
		t := s.ExecutionTime - mean
		ssRes += r * r
		ssTot += t * t
	}
	if ssTot <= varianceEpsilon {
		return 0, false
	}
	return 1 - ssRes/ssTot, true
}
