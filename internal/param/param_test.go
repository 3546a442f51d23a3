// SPDX-License-Identifier: MIT
package param

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestRangeRoundTrip(t *testing.T) {
	ranges := []struct {
		desc string
		r    Range
	}{
		{"Linear", Linear(0, 10)},
		{"Skewed drive", Skewed(0, 10, GainSkewFactor(0, 10))},
		{"Skewed gain", Skewed(DBToGain(-30), DBToGain(30), GainSkewFactor(-30, 30))},
	}

	for _, rr := range ranges {
		t.Run(rr.desc, func(t *testing.T) {
			for i := 0; i <= 20; i++ {
				n := float32(i) / 20
				plain := rr.r.Unnormalize(n)
				if plain < rr.r.Min || plain > rr.r.Max {
					t.Fatalf("Unnormalize(%v) = %v outside [%v, %v]", n, plain, rr.r.Min, rr.r.Max)
				}
				back := rr.r.Normalize(plain)
				if !scalar.EqualWithinAbs(float64(back), float64(n), 1e-4) {
					t.Errorf("Normalize(Unnormalize(%v)) = %v", n, back)
				}
			}
		})
	}
}

func TestRangeClampsOutOfBounds(t *testing.T) {
	r := Linear(-1, 1)
	if got := r.Normalize(5); got != 1 {
		t.Errorf("Normalize(5) = %v, want 1", got)
	}
	if got := r.Normalize(-5); got != 0 {
		t.Errorf("Normalize(-5) = %v, want 0", got)
	}
	if got := r.Unnormalize(2); got != 1 {
		t.Errorf("Unnormalize(2) = %v, want 1", got)
	}
	if got := r.Unnormalize(-1); got != -1 {
		t.Errorf("Unnormalize(-1) = %v, want -1", got)
	}
}

func TestGainSkewFactorCentersMidpoint(t *testing.T) {
	r := Skewed(DBToGain(-30), DBToGain(30), GainSkewFactor(-30, 30))

	// 0 dB is halfway between -30 and +30 dB.
	got := r.Normalize(DBToGain(0))
	if !scalar.EqualWithinAbs(float64(got), 0.5, 1e-4) {
		t.Errorf("Normalize(0 dB) = %v, want 0.5", got)
	}
}

func TestDecibelConversion(t *testing.T) {
	tests := []struct {
		db   float32
		gain float64
	}{
		{0, 1},
		{-6.0206, 0.5},
		{20, 10},
		{-20, 0.1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%vdB", tt.db), func(t *testing.T) {
			if got := DBToGain(tt.db); !scalar.EqualWithinAbs(float64(got), tt.gain, 1e-4) {
				t.Errorf("DBToGain(%v) = %v, want %v", tt.db, got, tt.gain)
			}
			if got := GainToDB(float32(tt.gain)); !scalar.EqualWithinAbs(float64(got), float64(tt.db), 1e-3) {
				t.Errorf("GainToDB(%v) = %v, want %v", tt.gain, got, tt.db)
			}
		})
	}

	if got := GainToDB(0); got != MinusInfinityDB {
		t.Errorf("GainToDB(0) = %v, want %v", got, MinusInfinityDB)
	}
	if got := DBToGain(-120); got != 0 {
		t.Errorf("DBToGain(-120) = %v, want 0", got)
	}
}

func TestDBFormatterAndParser(t *testing.T) {
	format := GainToDBFormatter(2)
	if got := format(1); got != "0.00" {
		t.Errorf("format(1) = %q, want \"0.00\"", got)
	}
	if got := format(0); got != "-inf" {
		t.Errorf("format(0) = %q, want \"-inf\"", got)
	}

	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"0", 1, false},
		{"0 dB", 1, false},
		{"20dB", 10, false},
		{" -20 db ", 0.1, false},
		{"-inf", 0, false},
		{"loud", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := DBToGainParser(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("DBToGainParser(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("DBToGainParser(%q) error: %v", tt.in, err)
			}
			if !scalar.EqualWithinAbs(float64(got), tt.want, 1e-4) {
				t.Errorf("DBToGainParser(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParamSetClampsAndIgnoresNaN(t *testing.T) {
	p := New("drive", "drive", 1, Linear(0, 10))

	p.Set(4)
	if p.Value() != 4 {
		t.Errorf("Value() = %v, want 4", p.Value())
	}

	p.Set(50)
	if p.Value() != 10 {
		t.Errorf("Value() after Set(50) = %v, want 10", p.Value())
	}

	p.Set(float32(math.NaN()))
	if p.Value() != 10 {
		t.Errorf("Value() after Set(NaN) = %v, want 10", p.Value())
	}

	p.SetNormalized(0.5)
	if p.Value() != 5 {
		t.Errorf("Value() after SetNormalized(0.5) = %v, want 5", p.Value())
	}
}

func TestParamParseAndString(t *testing.T) {
	set := NewSet(DefaultDefaults)

	if got := set.OutputGain().String(); got != "0.00 dB" {
		t.Errorf("output gain String() = %q, want \"0.00 dB\"", got)
	}
	if err := set.OutputGain().Parse("-6 dB"); err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got := set.OutputGain().String(); got != "-6.00 dB" {
		t.Errorf("output gain String() = %q, want \"-6.00 dB\"", got)
	}

	if err := set.Threshold().Parse("0.25"); err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got := set.Threshold().String(); got != "0.250" {
		t.Errorf("threshold String() = %q, want \"0.250\"", got)
	}

	if err := set.Skrunkle().Parse("lots"); err == nil {
		t.Error("expected error parsing non-numeric skrunkle")
	}
}

func TestSetDefaultsAndLookup(t *testing.T) {
	set := NewSet(DefaultDefaults)

	snap := set.Snapshot()
	if snap.OutputGain != 1 || snap.Skrunkle != 1 || snap.Threshold != 0 {
		t.Errorf("default snapshot = %+v", snap)
	}

	for _, id := range []ID{OutputGain, Skrunkle, Threshold} {
		p, err := set.Get(id)
		if err != nil {
			t.Fatalf("Get(%s) error: %v", id, err)
		}
		if p.ID != id {
			t.Errorf("Get(%s) returned %s", id, p.ID)
		}
	}

	if _, err := set.Get("wobble"); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("Get(wobble) error = %v, want ErrUnknownParam", err)
	}

	if len(set.All()) != 3 {
		t.Errorf("All() returned %d params, want 3", len(set.All()))
	}
}

func TestSetApplySnapshot(t *testing.T) {
	set := NewSet(DefaultDefaults)
	set.Apply(Snapshot{OutputGain: 2, Skrunkle: 4, Threshold: 0.1})

	got := set.Snapshot()
	want := Snapshot{OutputGain: 2, Skrunkle: 4, Threshold: 0.1}
	if got != want {
		t.Errorf("Snapshot() = %+v, want %+v", got, want)
	}
}

func TestSetNextFollowsTarget(t *testing.T) {
	set := NewSet(Defaults{Skrunkle: 1, Style: LogarithmicSmoothing, SmoothingMs: 50})
	set.SetSampleRate(1000) // 50 steps per glide

	set.Skrunkle().Set(8)

	prev := float32(1)
	for i := 0; i < 49; i++ {
		v := set.NextSkrunkle()
		if v <= prev || v >= 8 {
			t.Fatalf("step %d: value %v not strictly between %v and 8", i, v, prev)
		}
		prev = v
	}
	if v := set.NextSkrunkle(); v != 8 {
		t.Errorf("final step = %v, want exactly 8", v)
	}
	if v := set.NextSkrunkle(); v != 8 {
		t.Errorf("after glide = %v, want 8", v)
	}
}

func TestSetConcurrentWriterReader(t *testing.T) {
	set := NewSet(DefaultDefaults)
	set.SetSampleRate(48000)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			set.Threshold().SetNormalized(float32(i%100) / 100)
		}
	}()

	for i := 0; i < 1000; i++ {
		v := set.NextThreshold()
		if v < 0 || v > 1 {
			t.Fatalf("threshold %v outside range", v)
		}
	}
	wg.Wait()
}

func TestSmoother(t *testing.T) {
	t.Run("Linear", func(t *testing.T) {
		s := NewSmoother(LinearSmoothing, 10)
		s.SetSampleRate(1000) // 10 steps
		s.Reset(0)
		s.SetTarget(1)

		if !s.IsSmoothing() {
			t.Fatal("expected glide in progress")
		}
		for i := 0; i < 4; i++ {
			s.Next()
		}
		if v := s.Next(); !scalar.EqualWithinAbs(float64(v), 0.5, 1e-6) {
			t.Errorf("midpoint = %v, want 0.5", v)
		}
		for i := 0; i < 5; i++ {
			s.Next()
		}
		if s.Current() != 1 || s.IsSmoothing() {
			t.Errorf("current = %v smoothing = %v, want 1 and false", s.Current(), s.IsSmoothing())
		}
	})

	t.Run("Logarithmic to zero", func(t *testing.T) {
		s := NewSmoother(LogarithmicSmoothing, 5)
		s.SetSampleRate(1000) // 5 steps
		s.Reset(1)
		s.SetTarget(0)

		for i := 0; i < 4; i++ {
			if v := s.Next(); v <= 0 || v >= 1 {
				t.Fatalf("step %d: %v outside (0, 1)", i, v)
			}
		}
		if v := s.Next(); v != 0 {
			t.Errorf("final value = %v, want 0", v)
		}
	})

	t.Run("None", func(t *testing.T) {
		s := NewSmoother(NoSmoothing, 50)
		s.SetSampleRate(48000)
		s.Reset(0.2)
		s.SetTarget(0.7)
		if v := s.Next(); v != 0.7 {
			t.Errorf("Next() = %v, want 0.7", v)
		}
	})

	t.Run("No sample rate", func(t *testing.T) {
		s := NewSmoother(LinearSmoothing, 50)
		s.Reset(0)
		s.SetTarget(3)
		if v := s.Next(); v != 3 {
			t.Errorf("Next() = %v, want 3", v)
		}
	})
}

func TestParseSmoothingStyle(t *testing.T) {
	tests := []struct {
		in      string
		want    SmoothingStyle
		wantErr bool
	}{
		{"none", NoSmoothing, false},
		{"Linear", LinearSmoothing, false},
		{"LOG", LogarithmicSmoothing, false},
		{"logarithmic", LogarithmicSmoothing, false},
		{"cubic", LogarithmicSmoothing, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSmoothingStyle(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSmoothingStyle(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseSmoothingStyle(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParamNextNoAllocsHotPath(t *testing.T) {
	set := NewSet(DefaultDefaults)
	set.SetSampleRate(48000)

	allocs := testing.AllocsPerRun(100, func() {
		_ = set.NextOutputGain()
		_ = set.NextSkrunkle()
		_ = set.NextThreshold()
	})

	if allocs > 0 {
		t.Errorf("Expected zero allocations reading parameters, got %.1f", allocs)
	}
}
