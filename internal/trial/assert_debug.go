//go:build debug

package trial

import "fmt"

func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("trial invariant: "+format, args...))
	}
}
