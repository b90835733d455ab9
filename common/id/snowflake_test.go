package id_test

import (
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/recommender/common/id"
)

var _ = Describe("snowflake ids", func() {
	BeforeEach(func() {
		Expect(id.Init(1)).To(Succeed())
	})

	It("generates increasing unique ids", func() {
		seen := map[int64]bool{}
		prev := int64(0)
		for range 100 {
			v := id.New()
			Expect(v).To(BeNumerically(">", prev))
			Expect(seen).NotTo(HaveKey(v))
			seen[v] = true
			prev = v
		}
	})

	It("round trips through Parse", func() {
		v := id.New()
		parsed, ok := id.Parse(strconv.FormatInt(v, 10))
		Expect(ok).To(BeTrue())
		Expect(parsed).To(Equal(v))
	})

	DescribeTable("rejects invalid ids",
		func(input string) {
			_, ok := id.Parse(input)
			Expect(ok).To(BeFalse())
		},
		Entry("empty", ""),
		Entry("text", "abc"),
		Entry("negative", "-5"),
		Entry("zero", "0"),
	)
})
