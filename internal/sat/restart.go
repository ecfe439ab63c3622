package sat

// RestartMode selects the restart policy of spec.md §4.4.
type RestartMode uint8

const (
	RestartStatic RestartMode = iota
	RestartDynamic
	RestartAuto
)

// restartController decides when the search driver should cancel back to
// level 0 and start a fresh run. It has no teacher analogue (the teacher
// never restarts within Search, relying on the outer Solve loop's growing
// conflict budget instead); it is written directly from spec.md §4.4.
type restartController struct {
	mode RestartMode

	// Static (Luby-like) mode.
	lubyBase              int
	lubyIndex             int
	conflictsAtLastReset  int64

	// Dynamic (glue-average) mode.
	shortGlue      ema
	longGlue       ema
	dynThreshold   float64
	minSinceReset  int64
	sinceReset     int64

	// Auto mode: sample for samplingConflicts conflicts, then commit.
	samplingConflicts int64
	committed         bool
	committedMode     RestartMode
	glueVariance      varianceTracker
}

// varianceTracker computes a running variance (Welford's algorithm) used by
// auto mode to decide whether the instance looks "glue-volatile" (favoring
// dynamic restarts) or stable (favoring static Luby restarts).
type varianceTracker struct {
	n     int64
	mean  float64
	m2    float64
}

func (v *varianceTracker) add(x float64) {
	v.n++
	d := x - v.mean
	v.mean += d / float64(v.n)
	d2 := x - v.mean
	v.m2 += d * d2
}

func (v *varianceTracker) variance() float64 {
	if v.n < 2 {
		return 0
	}
	return v.m2 / float64(v.n-1)
}

// newRestartController builds a controller for the given mode with
// reasonable defaults for the EMA windows and Luby base, per spec.md §4.4.
func newRestartController(mode RestartMode, lubyBase int, dynThreshold float64) *restartController {
	if lubyBase <= 0 {
		lubyBase = 100
	}
	if dynThreshold <= 0 {
		dynThreshold = 1.25
	}
	return &restartController{
		mode:              mode,
		lubyBase:          lubyBase,
		dynThreshold:      dynThreshold,
		shortGlue:         newEMA(0.8),  // ~5-conflict effective window
		longGlue:          newEMA(0.999), // ~1000-conflict effective window
		minSinceReset:     50,
		samplingConflicts: 1000,
	}
}

// luby returns the i-th term (0-indexed, so luby(0) == 1) of the Luby sequence:
// 1 1 2 1 1 2 4 1 1 2 1 1 2 4 8 ...
func luby(i int) int {
	// Find the finite Luby sequence containing i.
	size, seq := 1, 0
	for size < i+1 {
		seq++
		size = 2*size + 1
	}
	for size-1 != i {
		size = (size - 1) / 2
		seq--
		i %= size
	}
	return 1 << seq
}

// onConflict records a just-learnt clause's glue and total conflict count.
func (rc *restartController) onConflict(totalConflicts int64, glue int) {
	rc.sinceReset++

	mode := rc.effectiveMode()
	if mode == RestartDynamic || rc.mode == RestartAuto {
		rc.shortGlue.add(float64(glue))
		rc.longGlue.add(float64(glue))
	}
	if rc.mode == RestartAuto && !rc.committed {
		rc.glueVariance.add(float64(glue))
		if totalConflicts-rc.conflictsAtLastReset >= rc.samplingConflicts {
			rc.commit()
		}
	}
}

// commit locks auto mode into static or dynamic based on the observed glue
// variance over the sampling phase (spec.md §4.4's auto mode).
func (rc *restartController) commit() {
	rc.committed = true
	if rc.glueVariance.variance() > 4.0 {
		rc.committedMode = RestartDynamic
	} else {
		rc.committedMode = RestartStatic
	}
}

func (rc *restartController) effectiveMode() RestartMode {
	if rc.mode == RestartAuto {
		if rc.committed {
			return rc.committedMode
		}
		return RestartDynamic // sample using the dynamic signal
	}
	return rc.mode
}

// shouldRestart reports whether the search should cancel to level 0 now.
func (rc *restartController) shouldRestart(totalConflicts int64) bool {
	switch rc.effectiveMode() {
	case RestartStatic:
		return totalConflicts-rc.conflictsAtLastReset >= int64(rc.lubyBase*luby(rc.lubyIndex))
	default: // RestartDynamic
		if rc.sinceReset < rc.minSinceReset {
			return false
		}
		if !rc.shortGlue.init || !rc.longGlue.init {
			return false
		}
		return rc.shortGlue.val() > rc.longGlue.val()*rc.dynThreshold
	}
}

// reset is called once the driver actually performs the restart.
func (rc *restartController) reset(totalConflicts int64) {
	rc.conflictsAtLastReset = totalConflicts
	rc.sinceReset = 0
	if rc.effectiveMode() == RestartStatic {
		rc.lubyIndex++
	}
}
