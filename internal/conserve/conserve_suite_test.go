package conserve_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestConserve(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Conserve Suite")
}
