package bloom

import (
	"fmt"
	"testing"
)

func benchKeys(n int, prefix string) [][]byte {
	out := make([][]byte, n)
	for i := 0; i < n; i++ {
		out[i] = []byte(fmt.Sprintf("%s:%011d", prefix, i))
	}
	return out
}

func BenchmarkBloom_Negative(b *testing.B) {
	const n = 50_000
	bf := NewFactory().New(n, 0.01)
	for _, k := range benchKeys(n, "video") {
		bf.Add(k)
	}
	absent := benchKeys(n, "channel")

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bf.MightContain(absent[i%len(absent)])
	}
}

// BenchmarkBloom_FalsePositiveRate reports the observed FP rate on a
// disjoint key set.
func BenchmarkBloom_FalsePositiveRate(b *testing.B) {
	const n = 10_000
	const trials = 100_000
	bf := NewFactory().New(n, 0.01)
	for _, k := range benchKeys(n, "present") {
		bf.Add(k)
	}
	absent := benchKeys(trials, "absent")

	b.ResetTimer()
	fp := 0
	for i := 0; i < trials; i++ {
		if bf.MightContain(absent[i]) {
			fp++
		}
	}
	b.StopTimer()
	b.ReportMetric(float64(fp), "fp_count")
	b.ReportMetric(float64(fp)/float64(trials)*100, "fp_percent")
}
