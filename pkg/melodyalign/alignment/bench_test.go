package alignment_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/himanishpuri/MelodyAlign/pkg/melodyalign/alignment"
)

func benchmarkAlign(b *testing.B, frames int, band float64) {
	rng := rand.New(rand.NewSource(1))
	ref := randomContour(rng, frames)
	user := randomContour(rng, frames+frames/10)
	_, end := ref.Span()
	notes := []alignment.NoteBoundary{{StartTime: 0, Duration: end + hop, ExpectedFrequencyHz: 330}}
	cfg := alignment.DefaultConfig()
	cfg.SakoeChibaBandFraction = band

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := alignment.Align(context.Background(), ref, user, notes, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAlign_500_Unbounded(b *testing.B)  { benchmarkAlign(b, 500, 0) }
func BenchmarkAlign_500_Band15(b *testing.B)     { benchmarkAlign(b, 500, 0.15) }
func BenchmarkAlign_2000_Unbounded(b *testing.B) { benchmarkAlign(b, 2000, 0) }
func BenchmarkAlign_2000_Band15(b *testing.B)    { benchmarkAlign(b, 2000, 0.15) }
