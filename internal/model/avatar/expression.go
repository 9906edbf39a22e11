// Package avatar maps a discipline score onto the parameters driving the
// avatar's face rig. The mapping is a pure function so rendering backends
// can consume it without pulling in any animation state.
package avatar

// Status names the discrete facial regime the score falls into.
type Status string

const (
	StatusGodMode  Status = "GOD_MODE"
	StatusNominal  Status = "NOMINAL"
	StatusCritical Status = "CRITICAL"
)

// Expression holds the rig inputs for one facial regime.
type Expression struct {
	EyeSquint  float64
	MouthWidth float64
	PulseRate  float64
	Status     Status
}

// ForScore resolves the expression for a discipline score in [0, 100].
// Scores of 90 and above enter god mode, 25 and below are critical, and
// everything between stays nominal.
func ForScore(score int) Expression {
	switch {
	case score >= 90:
		return Expression{EyeSquint: 0.2, MouthWidth: 0.4, PulseRate: 0.5, Status: StatusGodMode}
	case score <= 25:
		return Expression{EyeSquint: 0.9, MouthWidth: 0.8, PulseRate: 2.5, Status: StatusCritical}
	default:
		return Expression{EyeSquint: 0, MouthWidth: 0.5, PulseRate: 1.0, Status: StatusNominal}
	}
}
