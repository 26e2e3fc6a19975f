package opcode

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var reservedPool = []string{"GLOBAL", "LOCALS", "MYAREA", "KAPUTZ"}

func genNamespace() gopter.Gen {
	return gen.OneGenOf(
		gen.IntRange(0, len(reservedPool)-1).Map(func(i int) string { return reservedPool[i] }),
		gen.IntRange(0, 9999).Map(func(n int) string { return fmt.Sprintf("AR%04d", n) }),
	)
}

func genName() gopter.Gen {
	return gen.Identifier().SuchThat(func(s string) bool { return !IsNamespace(s, nil) })
}

// Feature: opcode, Property: 名前空間の結合と分割は対称
func TestProperty_NamespaceMergeSymmetry(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	ns := func(s string) bool { return IsNamespace(s, nil) }

	properties.Property("name/namespace pairs pack namespace first and split back", prop.ForAll(
		func(name, space string) bool {
			packed := []string{space + name}
			if !reflect.DeepEqual(MergeStrings([]string{name, space}, ns), packed) {
				return false
			}
			if !reflect.DeepEqual(MergeStrings([]string{space, name}, ns), packed) {
				return false
			}
			got := SplitStrings([]string{space + name, ""}, []bool{false, true}, ns)
			return reflect.DeepEqual(got, []string{name, space})
		},
		genName(), genNamespace(),
	))

	properties.Property("two names pass through", prop.ForAll(
		func(a, b string) bool {
			return reflect.DeepEqual(MergeStrings([]string{a, b}, ns), []string{a, b})
		},
		genName(), genName(),
	))

	properties.Property("two namespaces pass through", prop.ForAll(
		func(a, b string) bool {
			return reflect.DeepEqual(MergeStrings([]string{a, b}, ns), []string{a, b})
		},
		genNamespace(), genNamespace(),
	))

	properties.TestingRun(t)
}
