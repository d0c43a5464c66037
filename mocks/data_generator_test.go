package mocks

import (
	"errors"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-marketdata/internal/types"
)

func TestDataGenerator_Generate(t *testing.T) {
	gen := NewDataGenerator(42)
	config := DefaultConfig()
	config.Count = 100

	candles := gen.Generate(config)

	if len(candles) != 100 {
		t.Errorf("expected 100 candles, got %d", len(candles))
	}

	for i, c := range candles {
		if c.Open == nil || c.High == nil || c.Low == nil || c.Close == nil {
			t.Fatalf("missing price at index %d", i)
		}

		if c.Open.Float64() <= 0 || c.Low.Float64() <= 0 {
			t.Errorf("invalid prices at index %d: O=%s L=%s", i, c.Open, c.Low)
		}

		if c.High.Float64() < c.Low.Float64() {
			t.Errorf("High < Low at index %d: H=%s L=%s", i, c.High, c.Low)
		}

		if c.Volume <= 0 {
			t.Errorf("non-positive volume at index %d: %d", i, c.Volume)
		}
	}

	for i := 1; i < len(candles); i++ {
		if got := candles[i].Time.Sub(candles[i-1].Time); got != config.Interval {
			t.Errorf("unexpected interval at index %d: expected %v, got %v", i, config.Interval, got)
		}
	}
}

func TestDataGenerator_Reproducibility(t *testing.T) {
	config := DefaultConfig()

	a := NewDataGenerator(7).Generate(config)
	b := NewDataGenerator(7).Generate(config)

	for i := range a {
		if *a[i].Close != *b[i].Close || a[i].Volume != b[i].Volume {
			t.Errorf("candles differ at index %d", i)
		}
	}
}

func TestDataGenerator_Different_Seeds(t *testing.T) {
	config := DefaultConfig()

	a := NewDataGenerator(1).Generate(config)
	b := NewDataGenerator(2).Generate(config)

	same := true
	for i := range a {
		if *a[i].Close != *b[i].Close {
			same = false
			break
		}
	}

	if same {
		t.Error("different seeds produced identical candles")
	}
}

func TestSeq(t *testing.T) {
	candles := NewDataGenerator(42).Generate(DefaultConfig())

	count := 0
	for c, err := range Seq(candles) {
		if err != nil {
			t.Fatal(err)
		}

		if !c.Time.Equal(candles[count].Time) {
			t.Errorf("candle %d out of order", count)
		}
		count++
	}

	if count != len(candles) {
		t.Errorf("expected %d candles, got %d", len(candles), count)
	}
}

func TestFailingSeq(t *testing.T) {
	boom := errors.New("boom")
	candles := NewDataGenerator(42).Generate(DefaultConfig())[:2]

	var (
		seen    []types.RawCandle
		lastErr error
	)

	for c, err := range FailingSeq(candles, boom) {
		if err != nil {
			lastErr = err
			continue
		}
		seen = append(seen, c)
	}

	if len(seen) != 2 || !errors.Is(lastErr, boom) {
		t.Errorf("expected 2 candles then boom, got %d and %v", len(seen), lastErr)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Interval != 24*time.Hour || config.Count != 7 {
		t.Errorf("unexpected default config: %+v", config)
	}
}
