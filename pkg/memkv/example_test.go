package memkv_test

import (
	"fmt"
	"time"

	"silenthope/pkg/memkv"
)

func Example_basic() {
	s := memkv.New(memkv.Options{})
	defer s.Close()

	s.Set("chain:people", []byte("Bob"), 500*time.Millisecond)

	v, _ := s.Get("chain:people")
	fmt.Println(string(v))

	s.Delete("chain:people")
	st := s.Metrics()
	fmt.Println(st.Keys, st.Dels)

	// Output:
	// Bob
	// 0 1
}
