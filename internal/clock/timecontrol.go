package clock

import (
	"fmt"
	"strconv"
	"strings"
)

const maxBaseMinutes = 24 * 60

// ParseTimeControl parses "<baseMinutes>+<incrementSeconds>".
// An empty string or "none" means an untimed game.
func ParseTimeControl(raw string) (Control, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" || v == "none" || v == "-" {
		return Control{Policy: PolicyNone}, nil
	}
	basePart, incPart, ok := strings.Cut(v, "+")
	if !ok {
		return Control{}, fmt.Errorf("time control %q: expected <minutes>+<seconds>", raw)
	}
	base, err := strconv.Atoi(strings.TrimSpace(basePart))
	if err != nil || base <= 0 || base > maxBaseMinutes {
		return Control{}, fmt.Errorf("time control %q: invalid base minutes", raw)
	}
	inc, err := strconv.Atoi(strings.TrimSpace(incPart))
	if err != nil || inc < 0 || inc > 600 {
		return Control{}, fmt.Errorf("time control %q: invalid increment seconds", raw)
	}
	ctl := Control{
		Policy:      PolicyFixed,
		BaseMs:      int64(base) * 60_000,
		IncrementMs: int64(inc) * 1_000,
	}
	if inc > 0 {
		ctl.Policy = PolicyIncrement
	}
	return ctl, nil
}

// String renders the control back into its wire form.
func (c Control) String() string {
	if !c.Timed() {
		return "none"
	}
	return fmt.Sprintf("%d+%d", c.BaseMs/60_000, c.IncrementMs/1_000)
}
