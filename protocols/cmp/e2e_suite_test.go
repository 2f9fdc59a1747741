package cmp_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestCMP(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "CGGMP21 threshold-ECDSA suite")
}
