package audio

import (
	"testing"
	"time"
)

func TestSilenceDetector(t *testing.T) {
	cfg := SilenceConfig{ThresholdDB: -40, Duration: 10 * time.Second, Recovery: 2 * time.Second}
	d := NewSilenceDetector()
	t0 := time.Unix(1_700_000_000, 0)
	at := func(s float64) time.Time { return t0.Add(time.Duration(s * float64(time.Second))) }

	if st := d.Update(-50, cfg, at(0)); st.InSilence || st.Entered {
		t.Fatalf("silence confirmed immediately: %+v", st)
	}
	if st := d.Update(-50, cfg, at(9.9)); st.InSilence {
		t.Fatalf("silence confirmed before duration: %+v", st)
	}
	st := d.Update(-50, cfg, at(10))
	if !st.Entered || !st.InSilence || st.Level != "active" {
		t.Fatalf("silence not entered at duration: %+v", st)
	}
	if st := d.Update(-50, cfg, at(11)); st.Entered || !st.InSilence {
		t.Fatalf("entered reported twice: %+v", st)
	}

	// Sound returns but not long enough to recover.
	if st := d.Update(-10, cfg, at(12)); !st.InSilence || st.Recovered {
		t.Fatalf("recovered too early: %+v", st)
	}
	if st := d.Update(-50, cfg, at(13)); !st.InSilence {
		t.Fatalf("silence lost during recovery: %+v", st)
	}

	d.Update(-10, cfg, at(14))
	st = d.Update(-10, cfg, at(16))
	if !st.Recovered || st.InSilence {
		t.Fatalf("not recovered after recovery time: %+v", st)
	}
	if st.Total != 13*time.Second {
		t.Fatalf("total silence %v, want 13s", st.Total)
	}
	if st := d.Update(-10, cfg, at(17)); st.Recovered || st.InSilence {
		t.Fatalf("recovered reported twice: %+v", st)
	}
}

func TestSilenceDetectorShortGap(t *testing.T) {
	cfg := SilenceConfig{ThresholdDB: -40, Duration: time.Second, Recovery: time.Second}
	d := NewSilenceDetector()
	t0 := time.Unix(0, 0)

	d.Update(-50, cfg, t0)
	d.Update(-10, cfg, t0.Add(500*time.Millisecond))
	if st := d.Update(-50, cfg, t0.Add(1200*time.Millisecond)); st.InSilence {
		t.Fatalf("a loud sample must restart the silence clock: %+v", st)
	}

	d.Reset()
	if st := d.Update(-50, cfg, t0.Add(2*time.Second)); st.InSilence {
		t.Fatalf("reset did not clear state: %+v", st)
	}
}

func TestPeakHolder(t *testing.T) {
	p := NewPeakHolder(time.Second)
	t0 := time.Unix(0, 0)

	if got := p.Update(-20, t0); got != -20 {
		t.Fatalf("got %v", got)
	}
	if got := p.Update(-30, t0.Add(500*time.Millisecond)); got != -20 {
		t.Fatalf("quieter reading replaced the held peak: %v", got)
	}
	if got := p.Update(-10, t0.Add(600*time.Millisecond)); got != -10 {
		t.Fatalf("louder reading not held: %v", got)
	}
	if got := p.Update(-30, t0.Add(1700*time.Millisecond)); got != -30 {
		t.Fatalf("held peak did not expire: %v", got)
	}

	p.Reset()
	if got := p.Update(MinDB, t0.Add(1800*time.Millisecond)); got != MinDB {
		t.Fatalf("after reset got %v", got)
	}
}
