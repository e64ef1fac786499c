package resolve

import (
	"fmt"
	"strings"
)

// Policy selects how the loop reacts to a non-empty finding list.
type Policy string

const (
	PolicyAsk      Policy = "ask"
	PolicyRetry    Policy = "retry"
	PolicyManual   Policy = "manual"
	PolicyFailSoft Policy = "fail_soft"
	PolicyFailHard Policy = "fail_hard"
)

// ParsePolicy accepts the canonical names plus the "fail:soft" / "fail-soft" spellings.
func ParsePolicy(raw string) (Policy, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.NewReplacer(":", "_", "-", "_").Replace(s)
	switch Policy(s) {
	case "":
		return PolicyAsk, nil
	case PolicyAsk, PolicyRetry, PolicyManual, PolicyFailSoft, PolicyFailHard:
		return Policy(s), nil
	case "soft":
		return PolicyFailSoft, nil
	case "hard":
		return PolicyFailHard, nil
	}
	return "", fmt.Errorf("unknown resolution policy %q", raw)
}

// Choice is the reaction picked for one round of findings, either by the policy itself or by an operator under ASK.
type Choice int

const (
	ChoiceFailSoft Choice = iota
	ChoiceFailHard
	ChoiceManual
	ChoiceRetry
	ChoiceAccept
)

func (c Choice) String() string {
	switch c {
	case ChoiceFailSoft:
		return "fail_soft"
	case ChoiceFailHard:
		return "fail_hard"
	case ChoiceManual:
		return "manual"
	case ChoiceRetry:
		return "retry"
	case ChoiceAccept:
		return "accept"
	}
	return "unknown"
}

func choiceFor(p Policy) (Choice, bool) {
	switch p {
	case PolicyRetry:
		return ChoiceRetry, true
	case PolicyManual:
		return ChoiceManual, true
	case PolicyFailSoft:
		return ChoiceFailSoft, true
	case PolicyFailHard:
		return ChoiceFailHard, true
	}
	return 0, false
}
