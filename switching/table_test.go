package switching

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ethersim/mac"
)

var _ = Describe("Table", func() {
	var (
		t Table
		a = mac.MustParse("02:00:00:00:00:0a")
		b = mac.MustParse("02:00:00:00:00:0b")
	)

	BeforeEach(func() {
		t = NewTable()
	})

	It("should start empty", func() {
		Expect(t.Len()).To(Equal(0))
		Expect(t.Entries()).To(BeEmpty())

		_, found := t.Lookup(a)
		Expect(found).To(BeFalse())
	})

	It("should learn an address once", func() {
		Expect(t.Learn(1, a)).To(BeTrue())
		Expect(t.Learn(1, a)).To(BeFalse())

		Expect(t.Len()).To(Equal(1))
		Expect(t.Entries()).To(Equal([]Row{{Port: 1, MAC: a}}))
	})

	It("should keep the last address seen on a port", func() {
		t.Learn(1, a)
		Expect(t.Learn(1, b)).To(BeTrue())

		addr, found := t.Entry(1)
		Expect(found).To(BeTrue())
		Expect(addr).To(Equal(b))

		_, found = t.Lookup(a)
		Expect(found).To(BeFalse())
	})

	It("should return the first port in learning order", func() {
		t.Learn(3, a)
		t.Learn(1, b)
		t.Learn(2, a)

		port, found := t.Lookup(a)
		Expect(found).To(BeTrue())
		Expect(port).To(Equal(3))

		Expect(t.Entries()).To(Equal([]Row{
			{Port: 3, MAC: a},
			{Port: 1, MAC: b},
			{Port: 2, MAC: a},
		}))
	})

	It("should keep a port's position when it is relearned", func() {
		t.Learn(1, a)
		t.Learn(2, b)
		t.Learn(1, b)

		port, _ := t.Lookup(b)
		Expect(port).To(Equal(1))
	})
})
