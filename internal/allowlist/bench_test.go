package allowlist

import (
	"fmt"
	"testing"

	"github.com/hostgate-io/hostgate/internal/model"
)

func BenchmarkDecide_Match(b *testing.B) {
	l := New([]string{"127.0.0.1", "localhost:5000", "api.example.com"})
	id := model.Identity{RemoteAddr: "127.0.0.1:5000", Host: "localhost:5000"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.Decide(id)
	}
}

func BenchmarkDecide_NoMatch(b *testing.B) {
	l := New([]string{"127.0.0.1", "localhost:5000", "api.example.com"})
	id := model.Identity{RemoteAddr: "203.0.113.9:40000", Host: "evil.example.com"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.Decide(id)
	}
}

func BenchmarkDecide_LargeList(b *testing.B) {
	hosts := make([]string, 0, 10000)
	for i := 0; i < 10000; i++ {
		hosts = append(hosts, fmt.Sprintf("10.%d.%d.%d", i/65536, (i/256)%256, i%256))
	}
	l := New(hosts)
	id := model.Identity{RemoteAddr: "203.0.113.9:40000"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.Decide(id)
	}
}

func BenchmarkDecide_AllowAll(b *testing.B) {
	id := model.Identity{RemoteAddr: "203.0.113.9:40000", Host: "evil.example.com"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		AllowAll.Decide(id)
	}
}
