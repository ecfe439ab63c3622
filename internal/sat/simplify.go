package sat

// simplifyController schedules independent SIMPLIFY episodes by conflict
// count (spec.md §4.7's "if conflicts >= nextSimplify: return to SIMPLIFY"),
// on its own growing cadence separate from the restart and reduce
// schedules it runs alongside. No teacher or pack file ties a simplify
// episode to anything other than "decision level zero reached", which
// happens to coincide with a restart; this controller gives it a genuine,
// independent trigger.
type simplifyController struct {
	nextTarget int64
	growth     int64
}

func newSimplifyController(initialTarget, growth int) *simplifyController {
	if initialTarget <= 0 {
		initialTarget = 1000
	}
	if growth <= 0 {
		growth = 150
	}
	return &simplifyController{nextTarget: int64(initialTarget), growth: int64(growth)}
}

// shouldSimplify reports whether the conflict count has reached the next
// scheduled SIMPLIFY episode boundary.
func (sc *simplifyController) shouldSimplify(conflicts int64) bool {
	return conflicts >= sc.nextTarget
}

// advance is called once the scheduled SIMPLIFY episode has been entered,
// scheduling the next one further out.
func (sc *simplifyController) advance() {
	sc.nextTarget += sc.growth
}
