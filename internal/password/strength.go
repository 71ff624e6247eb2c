package password

import passwordvalidator "github.com/wagslane/go-password-validator"

// RecommendedEntropyBits is the bar used for the informational strength hint.
const RecommendedEntropyBits = 60

type Estimate struct {
	EntropyBits float64 `json:"entropy_bits"`
	Strong      bool    `json:"strong"`
	Hint        string  `json:"hint,omitempty"`
}

// Assess is advisory. The registration rules decide what is accepted.
func Assess(plain string) Estimate {
	est := Estimate{EntropyBits: passwordvalidator.GetEntropy(plain)}
	if err := passwordvalidator.Validate(plain, RecommendedEntropyBits); err != nil {
		est.Hint = err.Error()
		return est
	}
	est.Strong = true
	return est
}
