package siebinga_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSiebinga(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Siebinga model suite")
}
