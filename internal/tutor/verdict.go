package tutor

// Verdict is the end-of-module assessment shown once every question has
// been answered.
type Verdict int

const (
	VerdictNone Verdict = iota
	VerdictFailed
	VerdictReview
	VerdictPassed
)

func (v Verdict) String() string {
	switch v {
	case VerdictFailed:
		return "You did not pass this segment's questions."
	case VerdictReview:
		return "You passed this segment's questions, but reviewing some more is recommended."
	case VerdictPassed:
		return "Congrats! You passed this segment's questions."
	}
	return ""
}

// Assess grades a total of score over answered questions, each worth at
// most maxScore. passRatio and reviewRatio are fractions of the maximum.
func Assess(score float64, answered int, maxScore, passRatio, reviewRatio float64) Verdict {
	if answered <= 0 {
		return VerdictNone
	}
	ceiling := maxScore * float64(answered)
	switch {
	case score < passRatio*ceiling:
		return VerdictFailed
	case score < reviewRatio*ceiling:
		return VerdictReview
	default:
		return VerdictPassed
	}
}
