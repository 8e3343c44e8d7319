package patterns

import (
	"fmt"
	"testing"
	"time"

	"github.com/maegy2011/yt-sub000/internal/admission/common/log"
	"github.com/maegy2011/yt-sub000/internal/admission/domain"
)

func BenchmarkMatch_200Rules_NoMatch(b *testing.B) {
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	st := &fakeStore{}
	kinds := []domain.PatternKind{domain.PatternKeyword, domain.PatternWildcard, domain.PatternRegex}
	for i := 0; i < 200; i++ {
		text := fmt.Sprintf("term%03d", i)
		if kinds[i%3] == domain.PatternWildcard {
			text += "*"
		}
		p, err := domain.NewPattern(text, domain.ScopeTitle, kinds[i%3], i%10, domain.SeverityLow, "", now)
		if err != nil {
			b.Fatal(err)
		}
		st.patterns = append(st.patterns, p)
	}
	e := NewEngine(st, WithLogger(log.NewNoopLogger()))
	if err := e.Reload(); err != nil {
		b.Fatal(err)
	}
	rec := domain.ContentRecord{Title: "A perfectly ordinary video title about cooking"}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Match(rec)
	}
}
