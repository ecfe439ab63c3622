package sat

import "testing"

func TestLuby_FirstFifteenTerms(t *testing.T) {
	want := []int{1, 1, 2, 1, 1, 2, 4, 1, 1, 2, 1, 1, 2, 4, 8}
	for i, w := range want {
		if got := luby(i); got != w {
			t.Errorf("luby(%d) = %d, want %d", i, got, w)
		}
	}
}

func TestRestartController_Static_TriggersAtLubyBoundary(t *testing.T) {
	rc := newRestartController(RestartStatic, 10, 1.25)

	if rc.shouldRestart(5) {
		t.Errorf("shouldRestart(5) with lubyBase=10 = true, want false")
	}
	if !rc.shouldRestart(10) {
		t.Errorf("shouldRestart(10) with lubyBase=10, luby(0)=1 = false, want true")
	}

	rc.reset(10)
	if rc.lubyIndex != 1 {
		t.Errorf("lubyIndex after reset = %d, want 1", rc.lubyIndex)
	}
	// luby(1) == 1, so the next boundary is another 10 conflicts out.
	if rc.shouldRestart(15) {
		t.Errorf("shouldRestart(15) right after reset = true, want false")
	}
	if !rc.shouldRestart(20) {
		t.Errorf("shouldRestart(20) = false, want true")
	}
}

func TestRestartController_Dynamic_RequiresMinSinceReset(t *testing.T) {
	rc := newRestartController(RestartDynamic, 100, 1.25)
	rc.minSinceReset = 3

	rc.onConflict(1, 10)
	rc.onConflict(2, 10)
	if rc.shouldRestart(2) {
		t.Errorf("shouldRestart() before minSinceReset reached = true, want false")
	}
}

func TestRestartController_Dynamic_TriggersWhenShortExceedsLong(t *testing.T) {
	rc := newRestartController(RestartDynamic, 100, 1.25)
	rc.minSinceReset = 0

	// Feed a long, stable low-glue history so longGlue settles near 5.
	for i := 0; i < 50; i++ {
		rc.onConflict(int64(i), 5)
	}
	// Then a spike in recent glue should push shortGlue above
	// longGlue*dynThreshold.
	for i := 50; i < 60; i++ {
		rc.onConflict(int64(i), 50)
	}

	if !rc.shouldRestart(60) {
		t.Errorf("shouldRestart() after a glue spike = false, want true")
	}
}

func TestRestartController_Auto_CommitsToDynamicOnHighVariance(t *testing.T) {
	rc := newRestartController(RestartAuto, 100, 1.25)
	rc.samplingConflicts = 4

	glues := []int{1, 100, 1, 100}
	for i, g := range glues {
		rc.onConflict(int64(i+1), g)
	}

	if !rc.committed {
		t.Fatalf("controller not committed after samplingConflicts reached")
	}
	if rc.committedMode != RestartDynamic {
		t.Errorf("committedMode = %v, want RestartDynamic (high glue variance)", rc.committedMode)
	}
}

func TestRestartController_Auto_CommitsToStaticOnLowVariance(t *testing.T) {
	rc := newRestartController(RestartAuto, 100, 1.25)
	rc.samplingConflicts = 4

	for i := 0; i < 4; i++ {
		rc.onConflict(int64(i+1), 3)
	}

	if !rc.committed {
		t.Fatalf("controller not committed after samplingConflicts reached")
	}
	if rc.committedMode != RestartStatic {
		t.Errorf("committedMode = %v, want RestartStatic (low glue variance)", rc.committedMode)
	}
}

func TestSimplifyController_ShouldSimplifyAndAdvance(t *testing.T) {
	sc := newSimplifyController(100, 20)
	if sc.shouldSimplify(99) {
		t.Errorf("shouldSimplify(99) with target 100 = true, want false")
	}
	if !sc.shouldSimplify(100) {
		t.Errorf("shouldSimplify(100) with target 100 = false, want true")
	}
	sc.advance()
	if sc.nextTarget != 120 {
		t.Errorf("nextTarget after advance() = %d, want 120", sc.nextTarget)
	}
}

func TestVarianceTracker_ZeroForSingleSample(t *testing.T) {
	var v varianceTracker
	v.add(42)
	if got := v.variance(); got != 0 {
		t.Errorf("variance() with n=1 = %v, want 0", got)
	}
}

func TestVarianceTracker_MatchesKnownSample(t *testing.T) {
	var v varianceTracker
	for _, x := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		v.add(x)
	}
	// Sample variance of this set is 4.571428... (sum of squared deviations
	// 32 over n-1=7).
	got := v.variance()
	want := 32.0 / 7.0
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("variance() = %v, want %v", got, want)
	}
}
