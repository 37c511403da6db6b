package memkv

import (
	"testing"
	"time"
)

func TestSetGetCopies(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	buf := []byte("abc")
	if err := s.Set("k1", buf, 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	buf[0] = 'Z'
	v, ok := s.Get("k1")
	if !ok || string(v) != "abc" {
		t.Fatalf("Get mismatch: ok=%v v=%q", ok, v)
	}
	v[0] = 'X'
	v2, ok := s.Get("k1")
	if !ok || string(v2) != "abc" {
		t.Fatalf("Get after modify copy mismatch: ok=%v v=%q", ok, v2)
	}
}

func TestDeleteAndExists(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	s.Set("k2", []byte("42"), 0)
	if !s.Exists("k2") {
		t.Fatalf("expected k2 to exist")
	}
	if !s.Delete("k2") {
		t.Fatalf("Delete should report a present key")
	}
	if s.Delete("k2") || s.Exists("k2") {
		t.Fatalf("expected k2 to be gone")
	}
}

func TestClearAndLen(t *testing.T) {
	s := New(Options{Shards: 4})
	defer s.Close()

	for _, k := range []string{"a", "b", "c", "d", "e"} {
		s.Set(k, []byte(k), 0)
	}
	if s.Len() != 5 {
		t.Fatalf("Len = %d", s.Len())
	}
	s.Clear()
	if s.Len() != 0 || s.Metrics().Bytes != 0 {
		t.Fatalf("after Clear: len=%d bytes=%d", s.Len(), s.Metrics().Bytes)
	}
	if _, ok := s.Get("a"); ok {
		t.Fatalf("cleared key still readable")
	}
}

func TestExpireTTL(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	s.Set("k3", []byte("v"), 50*time.Millisecond)
	if _, ok := s.Get("k3"); !ok {
		t.Fatalf("expected key present before TTL")
	}
	time.Sleep(120 * time.Millisecond)
	if s.Exists("k3") {
		t.Fatalf("expected key expired")
	}
	if _, ok := s.Get("k3"); ok {
		t.Fatalf("expected key expired")
	}
	if st := s.Metrics(); st.Expired == 0 {
		t.Fatalf("expected Expired > 0, got %v", st.Expired)
	}
}

func TestEarlierDeadlineSweptWithoutRead(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	s.Set("slow", []byte("v"), time.Hour)
	// let the expirer park on the one-hour timer
	time.Sleep(20 * time.Millisecond)
	s.Set("fast", []byte("v"), 30*time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for s.Len() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("short-lived key not swept: len=%d", s.Len())
		}
		time.Sleep(10 * time.Millisecond)
	}
	if st := s.Metrics(); st.Expired != 1 || st.Keys != 1 {
		t.Fatalf("metrics = %+v", st)
	}
	if !s.Exists("slow") {
		t.Fatalf("long-lived key swept")
	}
}

func TestMetrics(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	s.Set("a", []byte("123"), 0)
	s.Set("b", []byte("5"), 0)
	s.Set("a", []byte("12345"), 0)
	s.Get("a")
	s.Get("b")
	s.Get("missing")
	s.Delete("b")

	st := s.Metrics()
	if st.Keys != 1 {
		t.Fatalf("Keys=1 expected, got %d", st.Keys)
	}
	if st.Sets != 3 {
		t.Fatalf("Sets=3 expected, got %d", st.Sets)
	}
	if st.Gets != 3 || st.Hits != 2 || st.Misses != 1 {
		t.Fatalf("Gets/Hits/Misses mismatch: %d/%d/%d", st.Gets, st.Hits, st.Misses)
	}
	if st.Dels != 1 {
		t.Fatalf("Dels=1 expected, got %d", st.Dels)
	}
	if st.Bytes != 5 {
		t.Fatalf("Bytes=5 expected, got %d", st.Bytes)
	}
}
